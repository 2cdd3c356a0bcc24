package middleware

import (
	"fmt"
	"log"
	"net/http"
	"runtime/debug"

	"github.com/labstack/echo/v4"
)

// RecoverMiddleware turns a handler panic into a 500 and logs the stack
func RecoverMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			defer func() {
				if r := recover(); r != nil {
					log.Printf("⚠️  PANIC in %s %s: %v\n%s", c.Request().Method, c.Request().URL.Path, r, debug.Stack())
					err = c.JSON(http.StatusInternalServerError, map[string]string{
						"error": fmt.Sprintf("internal server error: %v", r),
					})
				}
			}()
			return next(c)
		}
	}
}
