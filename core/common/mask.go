package common

import (
	"regexp"
)

var (
	rePassword = regexp.MustCompile(`(?i)(password=)([^\s;]+)`)
	reToken    = regexp.MustCompile(`(?i)(token=|bearer\s+)([A-Za-z0-9._-]+)`)
	reURLCreds = regexp.MustCompile(`(?i)(://)([^:/\s]+):([^@\s]+)(@)`)
	reMySQLDSN = regexp.MustCompile(`([^\s:@/]+):([^@\s]*)(@tcp\()`)
	reAPIKey   = regexp.MustCompile(`(?i)(apikey=|api_key=|key=)([^\s;&]+)`)
	reOpenAI   = regexp.MustCompile(`\bsk-[A-Za-z0-9_-]{8,}`)
)

// Mask 隐藏字符串中的密码、令牌和 API Key，用于日志输出
func Mask(s string) string {
	out := s
	out = rePassword.ReplaceAllString(out, "$1***")
	out = reToken.ReplaceAllString(out, "$1***")
	out = reURLCreds.ReplaceAllString(out, "$1*:*$4")
	out = reMySQLDSN.ReplaceAllString(out, "$1:***$3")
	out = reAPIKey.ReplaceAllString(out, "$1***")
	out = reOpenAI.ReplaceAllString(out, "sk-***")
	return out
}

// MaskKey 只保留前 4 位
func MaskKey(key string) string {
	if key == "" {
		return ""
	}
	if len(key) <= 8 {
		return "***"
	}
	return key[:4] + "***"
}
