package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/runclub/backend/internal/services"
	"github.com/runclub/backend/pkg/logger"
)

// AuditLog records write requests (POST/PUT/DELETE) to system_logs.
func AuditLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		method := c.Request.Method
		// Only audit write operations
		if method != "POST" && method != "PUT" && method != "DELETE" {
			c.Next()
			return
		}

		// Mask before truncating so a cut-off value is never stored in clear
		var bodySnippet string
		if c.Request.Body != nil {
			bodyBytes, _ := io.ReadAll(c.Request.Body)
			c.Request.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))
			if len(bytes.TrimSpace(bodyBytes)) > 0 {
				if c.ContentType() == "application/x-www-form-urlencoded" {
					bodySnippet = maskFormValues(string(bodyBytes))
				} else {
					bodySnippet = maskSensitiveFields(string(bodyBytes))
				}
			}
			if len(bodySnippet) > 2000 {
				bodySnippet = bodySnippet[:2000] + "...[truncated]"
			}
		}

		// Process the request
		c.Next()

		userID := GetUserID(c)
		username := "anonymous"
		if u := GetUser(c); u != nil {
			username = u.Email
		}
		ip := c.ClientIP()
		userAgent := c.Request.UserAgent()
		status := c.Writer.Status()

		module, action := parseRouteInfo(c.FullPath(), method)

		message := formatAuditMessage(username, method, c.Request.URL.Path, status)

		var uid *uint
		if userID > 0 {
			uid = &userID
		}

		extra := map[string]interface{}{
			"method": method,
			"path":   c.Request.URL.Path,
			"status": status,
			"body":   bodySnippet,
		}
		if rid := c.GetString(logger.RequestIDKey); rid != "" {
			extra["requestId"] = rid
		}

		if status >= 500 {
			services.LogError(module, action, message, uid, ip, userAgent, extra)
		} else {
			services.LogInfo(module, action, message, uid, ip, userAgent, extra)
		}
	}
}

// parseRouteInfo extracts module and action from a Gin route pattern.
// e.g. "/api/runs/:id/join" + "POST" gives module "runs", action "join";
// "/api/runs" + "POST" gives module "runs", action "create".
func parseRouteInfo(fullPath, method string) (module, action string) {
	path := strings.Trim(strings.TrimPrefix(fullPath, "/api"), "/")

	var segments []string
	for _, seg := range strings.Split(path, "/") {
		if seg != "" && !strings.HasPrefix(seg, ":") && !strings.HasPrefix(seg, "*") {
			segments = append(segments, seg)
		}
	}
	if len(segments) == 0 {
		return "unknown", strings.ToLower(method)
	}

	module = segments[0]
	if len(segments) > 1 {
		return module, segments[len(segments)-1]
	}

	switch method {
	case "POST":
		action = "create"
	case "PUT":
		action = "update"
	case "DELETE":
		action = "delete"
	default:
		action = strings.ToLower(method)
	}

	return module, action
}

// formatAuditMessage creates a human-readable audit message.
func formatAuditMessage(username, method, path string, status int) string {
	var b strings.Builder
	b.WriteString("[Audit] ")
	b.WriteString(username)
	b.WriteString(" ")
	b.WriteString(method)
	b.WriteString(" ")
	b.WriteString(path)
	b.WriteString(" -> ")
	if status >= 200 && status < 300 {
		b.WriteString("OK")
	} else {
		b.WriteString("Failed")
	}
	return b.String()
}

// maskSensitiveFields masks sensitive keys at any depth of a JSON body.
func maskSensitiveFields(body string) string {
	var v interface{}
	if err := json.Unmarshal([]byte(body), &v); err != nil {
		return "[unparsable body]"
	}
	out, err := json.Marshal(maskValue(v))
	if err != nil {
		return "[unparsable body]"
	}
	return string(out)
}

func maskValue(v interface{}) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		for k, inner := range val {
			if isSensitiveKey(k) {
				val[k] = "***"
				continue
			}
			val[k] = maskValue(inner)
		}
		return val
	case []interface{}:
		for i := range val {
			val[i] = maskValue(val[i])
		}
		return val
	default:
		return v
	}
}

func isSensitiveKey(key string) bool {
	lower := strings.ToLower(key)
	return strings.Contains(lower, "password") || strings.Contains(lower, "token") || strings.Contains(lower, "secret")
}

// maskFormValues masks sensitive keys of a url-encoded body.
func maskFormValues(body string) string {
	values, err := url.ParseQuery(body)
	if err != nil {
		return "[unparsable form]"
	}
	for key := range values {
		if isSensitiveKey(key) {
			values.Set(key, "***")
		}
	}
	return values.Encode()
}
