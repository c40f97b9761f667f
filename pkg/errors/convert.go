package errors

import (
	"net/http"

	"google.golang.org/grpc/codes"
)

// codePair는 프레임워크 간 코드 매핑을 위한 구조체입니다
type codePair struct {
	httpStatus int
	grpcCode   codes.Code
}

// 코드 매핑 테이블
var codeMapping = map[string]codePair{
	ErrInternal:         {http.StatusInternalServerError, codes.Internal},
	ErrNotFound:         {http.StatusNotFound, codes.NotFound},
	ErrInvalidArgument:  {http.StatusBadRequest, codes.InvalidArgument},
	ErrUnauthenticated:  {http.StatusUnauthorized, codes.Unauthenticated},
	ErrUnauthorized:     {http.StatusForbidden, codes.PermissionDenied},
	ErrConflict:         {http.StatusConflict, codes.AlreadyExists},
	ErrTimeout:          {http.StatusGatewayTimeout, codes.DeadlineExceeded},
	ErrUsageDesync:      {http.StatusInternalServerError, codes.FailedPrecondition},
	ErrInvalidSignature: {http.StatusBadRequest, codes.InvalidArgument},
}

// GetCodeMapping은 특정 에러 코드에 대한 HTTP 및 gRPC 코드 매핑을 반환합니다
func GetCodeMapping(code string) (int, codes.Code) {
	if pair, ok := codeMapping[code]; ok {
		return pair.httpStatus, pair.grpcCode
	}
	return http.StatusInternalServerError, codes.Internal
}
