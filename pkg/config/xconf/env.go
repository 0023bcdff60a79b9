package xconf

// EnvBinding 环境变量与配置键的绑定。
type EnvBinding struct {
	Env string
	Key string
}

// LookupFunc 环境变量查找函数，签名与 os.LookupEnv 一致。
type LookupFunc func(key string) (string, bool)

// EnvOverrides 把已设置的环境变量转换为覆盖值。
//
// 未设置的变量跳过；设置为空字符串的变量同样跳过，避免空值覆盖默认值。
func EnvOverrides(bindings []EnvBinding, lookup LookupFunc) map[string]any {
	if lookup == nil {
		return nil
	}
	out := make(map[string]any, len(bindings))
	for _, b := range bindings {
		if v, ok := lookup(b.Env); ok && v != "" {
			out[b.Key] = v
		}
	}
	return out
}
