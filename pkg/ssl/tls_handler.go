package ssl

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/unrolled/secure"
)

// TlsHandler 把 HTTP 请求重定向到 HTTPS。enabled 为 false 时直接放行
func TlsHandler(host string, port int, enabled bool) gin.HandlerFunc {
	secureMiddleware := secure.New(secure.Options{
		SSLRedirect:          true,
		SSLHost:              host + ":" + strconv.Itoa(port),
		SSLProxyHeaders:      map[string]string{"X-Forwarded-Proto": "https"},
		STSSeconds:           31536000,
		STSIncludeSubdomains: true,
		IsDevelopment:        !enabled,
	})
	return func(c *gin.Context) {
		if !enabled {
			c.Next()
			return
		}
		// Process 已经写入重定向响应时直接返回
		if err := secureMiddleware.Process(c.Writer, c.Request); err != nil {
			c.Abort()
			return
		}
		c.Next()
	}
}
