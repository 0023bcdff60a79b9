// Package xconf 提供分层、只读的配置加载，基于 koanf 实现。
//
// # 分层
//
// 配置按以下顺序叠加，后者覆盖前者：
//
//  1. 默认值：[WithDefaults]
//  2. 配置文件：YAML（.yaml/.yml）或 JSON（.json），[New] 按扩展名识别
//  3. 覆盖值：[WithOverrides]，通常来自环境变量（见 [EnvOverrides]）
//
// 加载完成后配置不再变化，不提供重载与文件监视，[Config] 可被多个 goroutine 共享。
//
// # Unmarshal
//
// Unmarshal 使用 mapstructure 反序列化，允许弱类型转换
// （字符串 "8080" 可转为 int，"true" 可转为 bool，"5s" 可转为 time.Duration），
// 因此环境变量覆盖值可以直接以字符串形式叠加。
//
//	cfg, err := xconf.New("config.yaml",
//	    xconf.WithDefaults(map[string]any{"server.addr": ":3000"}),
//	    xconf.WithOverrides(xconf.EnvOverrides(bindings, os.LookupEnv)),
//	)
//	var server ServerConfig
//	err = cfg.Unmarshal("server", &server)
package xconf
