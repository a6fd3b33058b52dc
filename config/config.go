// Package config 提供 go-fileshare 的统一配置管理
//
// 本包采用混合配置模式：
//   - 主 Config 结构体嵌入所有子配置
//   - 每个子配置在独立文件中定义，各自提供默认值与校验
//   - 支持从 JSON 加载和保存配置
//
// 使用示例：
//
//	cfg := config.NewConfig()
//	cfg.Client.MailboxSize = 4
//
//	cfg, err := config.LoadFile("fileshare.json")
package config

// Config go-fileshare 的完整配置结构
//
//   - Client: Handle 与协调器（邮箱容量、通知缓冲）
//   - Engine: 网络引擎（请求超时、Provider 记录）
//   - Storage: 内容存储
//   - Log: 日志
//   - Node: 节点（监听地址）
type Config struct {
	// Client Handle 与协调器配置
	Client ClientConfig `json:"client"`

	// Engine 网络引擎配置
	Engine EngineConfig `json:"engine"`

	// Storage 内容存储配置
	Storage StorageConfig `json:"storage"`

	// Log 日志配置
	Log LogConfig `json:"log"`

	// Node 节点配置
	Node NodeConfig `json:"node"`
}

// NewConfig 创建默认配置
func NewConfig() *Config {
	return &Config{
		Client:  DefaultClientConfig(),
		Engine:  DefaultEngineConfig(),
		Storage: DefaultStorageConfig(),
		Log:     DefaultLogConfig(),
		Node:    DefaultNodeConfig(),
	}
}

// Validate 验证配置的有效性
func (c *Config) Validate() error {
	if err := c.Client.Validate(); err != nil {
		return err
	}
	if err := c.Engine.Validate(); err != nil {
		return err
	}
	if err := c.Storage.Validate(); err != nil {
		return err
	}
	if err := c.Log.Validate(); err != nil {
		return err
	}
	return c.Node.Validate()
}
