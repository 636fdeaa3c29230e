package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// BotFlagKey is the context key set on requests identified as bot traffic.
const BotFlagKey = "is_bot"

// botPatterns are User-Agent substrings (lowercase) of crawlers and scripted
// clients whose visits would inflate unique-visitor counts.
var botPatterns = []string{
	"googlebot", "bingbot", "slurp", "duckduckbot",
	"baiduspider", "yandexbot", "facebookexternalhit",
	"twitterbot", "linkedinbot", "applebot",
	"semrushbot", "ahrefsbot", "mj12bot", "dotbot",
	"petalbot", "bytespider", "headlesschrome",
	"python-requests", "go-http-client", "curl/", "wget/",
}

// BotFilter flags requests from known bots so the track handler can skip
// recording them. Requests without a User-Agent are flagged as well.
func BotFilter() gin.HandlerFunc {
	return func(c *gin.Context) {
		ua := strings.ToLower(c.Request.UserAgent())
		if ua == "" || isBot(ua) {
			c.Set(BotFlagKey, true)
		}
		c.Next()
	}
}

func isBot(ua string) bool {
	for _, pattern := range botPatterns {
		if strings.Contains(ua, pattern) {
			return true
		}
	}
	return false
}
