package logger

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	gommonlog "github.com/labstack/gommon/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	apperrors "github.com/wekeepgrowing/semo-billing/pkg/errors"
)

func TestNewZapLogger(t *testing.T) {
	logger, err := NewZapLogger(Config{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zap.DebugLevel))

	_, err = NewZapLogger(Config{Level: "chatty"})
	assert.Error(t, err)
}

func TestMaskValue(t *testing.T) {
	assert.Equal(t, "[MASKED]", maskValue("Bearer abc"))
	assert.Equal(t, "Bearer eyJ...WXYZ1", maskValue("Bearer eyJhbGciOiJIUzI1NiJ9.WXYZ1"))
}

func TestWithEchoLogger(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	e := echo.New()
	WithEchoLogger(e, zap.New(core))

	t.Run("client error is not logged", func(t *testing.T) {
		rec := httptest.NewRecorder()
		c := e.NewContext(httptest.NewRequest(http.MethodPost, "/billing/event", nil), rec)

		e.HTTPErrorHandler(apperrors.NewAppError(apperrors.ErrInvalidArgument, "workspaceId is required", nil), c)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.JSONEq(t, `{"error":"workspaceId is required","code":"INVALID_ARGUMENT"}`, rec.Body.String())
		assert.Equal(t, 0, logs.Len())
	})

	t.Run("server error is logged", func(t *testing.T) {
		rec := httptest.NewRecorder()
		c := e.NewContext(httptest.NewRequest(http.MethodPost, "/billing/event", nil), rec)

		e.HTTPErrorHandler(errors.New("db down"), c)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, 1, logs.FilterMessage("HTTP error").Len())
	})

	t.Run("plain echo error", func(t *testing.T) {
		rec := httptest.NewRecorder()
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/nope", nil), rec)

		e.HTTPErrorHandler(echo.ErrNotFound, c)

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.JSONEq(t, `{"error":"Not Found"}`, rec.Body.String())
	})
}

func TestEchoZapLogger(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := NewEchoZapLogger(zap.New(core))

	l.Infof("http server started on %s", "[::]:8080")
	l.Debug("hidden")
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "http server started on [::]:8080", logs.All()[0].Message)

	l.SetLevel(gommonlog.DEBUG)
	l.Debug("shown")
	assert.Equal(t, 1, logs.FilterMessage("shown").Len())

	l.SetLevel(gommonlog.OFF)
	l.Error("dropped")
	assert.Equal(t, 0, logs.FilterMessage("dropped").Len())

	l.SetLevel(gommonlog.INFO)
	l.SetPrefix("echo")
	l.Warnj(gommonlog.JSON{"k": "v"})
	warn := logs.FilterMessage("echo").All()
	require.Len(t, warn, 1)
	assert.Equal(t, "echo", warn[0].LoggerName)
	assert.Equal(t, "echo", l.Prefix())

	_, err := l.Output().Write([]byte("raw line"))
	require.NoError(t, err)
	assert.Equal(t, 1, logs.FilterMessage("raw line").Len())
}

func TestGrpcUnaryServerInterceptorConvertsAppError(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	interceptor := NewGrpcUnaryServerInterceptor(zap.New(core))
	info := &grpc.UnaryServerInfo{FullMethod: "/billing.v1.Usage/GetUserUsage"}

	_, err := interceptor(context.Background(), nil, info, func(ctx context.Context, req interface{}) (interface{}, error) {
		return nil, apperrors.NewAppError(apperrors.ErrNotFound, "subscription not found", nil)
	})

	st := status.Convert(err)
	assert.Equal(t, codes.NotFound, st.Code())
	assert.Equal(t, "subscription not found", st.Message())
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "NotFound", logs.All()[0].ContextMap()["grpc.code"])
}
