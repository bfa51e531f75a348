package logger

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

func newEchoContext() echo.Context {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	return e.NewContext(req, httptest.NewRecorder())
}

func TestFromContextReturnsRequestLogger(t *testing.T) {
	c := newEchoContext()
	want := zap.NewNop()
	c.Set("logger", want)

	if got := FromContext(c); got != want {
		t.Error("expected the logger stored in the echo context")
	}
}

func TestFromContextFallsBackToGlobal(t *testing.T) {
	c := newEchoContext()
	c.Request().Header.Set("X-Request-ID", "req-123")

	if got := FromContext(c); got == nil {
		t.Fatal("expected a fallback logger")
	}
}
