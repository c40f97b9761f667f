package errors

import (
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ToGRPCCode는 에러 코드를 gRPC 코드로 변환합니다
func ToGRPCCode(code string) codes.Code {
	_, grpcCode := GetCodeMapping(code)
	return grpcCode
}

// ToGRPCError는 에러를 gRPC status 에러로 변환합니다.
// 이미 status인 에러는 그대로 두고, Internal 응답에는 내부 원인을 노출하지 않습니다.
func ToGRPCError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}

	var appErr *AppError
	if As(err, &appErr) {
		grpcCode := ToGRPCCode(appErr.Code())
		if grpcCode == codes.Internal {
			return status.Error(grpcCode, appErr.Message())
		}
		return status.Error(grpcCode, appErr.Error())
	}

	return status.Error(codes.Internal, "internal server error")
}
