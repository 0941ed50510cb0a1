package config

import (
	"context"
	"strings"

	"github.com/gogf/gf/v2/frame/g"
	"github.com/gogf/gf/v2/os/genv"
	"github.com/gogf/gf/v2/os/gfile"
)

// LoadDotEnv 依次加载 .env 文件到进程环境变量，后加载的覆盖先加载的
// 返回实际加载的文件
func LoadDotEnv(ctx context.Context, paths ...string) []string {
	var loaded []string
	for _, path := range paths {
		if path == "" || !gfile.IsFile(path) {
			continue
		}
		err := gfile.ReadLines(path, func(line string) error {
			key, value, ok := parseEnvLine(line)
			if !ok {
				return nil
			}
			return genv.Set(key, value)
		})
		if err != nil {
			g.Log().Warningf(ctx, "Failed to load env file %s: %v", path, err)
			continue
		}
		loaded = append(loaded, path)
		g.Log().Debugf(ctx, "Loaded env file: %s", path)
	}
	return loaded
}

// parseEnvLine 解析 KEY=VALUE，跳过空行与 # 注释，去掉成对引号
func parseEnvLine(line string) (string, string, bool) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return "", "", false
	}
	line = strings.TrimPrefix(line, "export ")
	key, value, found := strings.Cut(line, "=")
	if !found {
		return "", "", false
	}
	key = strings.TrimSpace(key)
	value = strings.TrimSpace(value)
	if key == "" {
		return "", "", false
	}
	if len(value) >= 2 {
		if (value[0] == '"' && value[len(value)-1] == '"') || (value[0] == '\'' && value[len(value)-1] == '\'') {
			value = value[1 : len(value)-1]
		}
	}
	return key, value, true
}
