package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// basicRealm — realm, возвращаемый в заголовке WWW-Authenticate.
const basicRealm = `Basic realm="Orders API"`

// BasicAuth проверяет HTTP Basic credentials запроса. Сравнение обоих
// полей выполняется в константное время. Запрос без заголовка или с
// неверной парой логин/пароль получает 401 и не доходит до обработчика.
func BasicAuth(username, password string, logger *log.Entry) gin.HandlerFunc {
	if logger == nil {
		logger = log.WithField("component", "basic-auth")
	}

	return func(c *gin.Context) {
		user, pass, ok := c.Request.BasicAuth()
		if !ok {
			unauthorized(c)
			return
		}

		userMatch := subtle.ConstantTimeCompare([]byte(user), []byte(username)) == 1
		passMatch := subtle.ConstantTimeCompare([]byte(pass), []byte(password)) == 1
		if !userMatch || !passMatch {
			logger.WithField("path", c.Request.URL.Path).Warn("rejected request with invalid credentials")
			unauthorized(c)
			return
		}

		c.Next()
	}
}

func unauthorized(c *gin.Context) {
	c.Header("WWW-Authenticate", basicRealm)
	c.AbortWithStatus(http.StatusUnauthorized)
}
