package config

import (
	"fmt"
	"strings"

	"tryfi/internal/constant"

	"github.com/zeromicro/go-zero/rest"
)

// NativeCurrency describes the chain's base unit.
type NativeCurrency struct {
	Name     string `json:",optional"`
	Symbol   string `json:",optional"`
	Decimals int    `json:",default=-1"`
}

// Config is the full widget configuration. Required fields are validated
// eagerly at startup; the service refuses to come up on a bad config.
type Config struct {
	rest.RestConf

	ChainName         string         `json:",optional"`
	RpcUrl            string         `json:",optional"`
	ChainId           int64          `json:",optional"`
	NativeCurrency    NativeCurrency `json:",optional"`
	BlockExplorerUrls []string       `json:",optional"`

	// 可选字段，缺省值与原始控件一致
	Position  string   `json:",default=bottom-right"`
	Theme     string   `json:",default=default"`
	FaucetUrl string   `json:",optional"`
	IconUrls  []string `json:",optional"`

	// StorePath is the sqlite file holding the session and transaction log.
	StorePath string `json:",default=tryfi.db"`
}

// ConfigurationError marks a missing or malformed required field. It is
// fatal to initialization and never caught internally.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("tryfi: invalid configuration field %s: %s", e.Field, e.Reason)
}

var validPositions = []string{
	constant.PositionTopLeft,
	constant.PositionTopRight,
	constant.PositionBottomLeft,
	constant.PositionBottomRight,
	constant.PositionHidden,
}

// Validate 校验必填字段，任何缺失或畸形字段直接使初始化失败
func (c *Config) Validate() error {
	if strings.TrimSpace(c.ChainName) == "" {
		return &ConfigurationError{Field: "ChainName", Reason: "missing required field"}
	}
	if strings.TrimSpace(c.RpcUrl) == "" {
		return &ConfigurationError{Field: "RpcUrl", Reason: "missing required field"}
	}
	if c.ChainId <= 0 {
		return &ConfigurationError{Field: "ChainId", Reason: "must be a positive chain id"}
	}
	if c.NativeCurrency.Name == "" || c.NativeCurrency.Symbol == "" {
		return &ConfigurationError{Field: "NativeCurrency", Reason: "must have name, symbol and decimals"}
	}
	if c.NativeCurrency.Decimals < 0 || c.NativeCurrency.Decimals > 77 {
		return &ConfigurationError{Field: "NativeCurrency.Decimals", Reason: "must be a non-negative decimal count"}
	}
	if len(c.BlockExplorerUrls) == 0 {
		return &ConfigurationError{Field: "BlockExplorerUrls", Reason: "must be a non-empty array"}
	}
	for _, u := range c.BlockExplorerUrls {
		if strings.TrimSpace(u) == "" {
			return &ConfigurationError{Field: "BlockExplorerUrls", Reason: "must not contain empty entries"}
		}
	}
	if c.Position == "" {
		c.Position = constant.PositionBottomRight
	}
	ok := false
	for _, p := range validPositions {
		if c.Position == p {
			ok = true
			break
		}
	}
	if !ok {
		return &ConfigurationError{Field: "Position", Reason: fmt.Sprintf("unknown position %q", c.Position)}
	}
	return nil
}

// ExplorerTxUrl builds the outbound block explorer link for a transaction.
func (c *Config) ExplorerTxUrl(hash string) string {
	base := strings.TrimRight(c.BlockExplorerUrls[0], "/")
	return fmt.Sprintf("%s/tx/%s", base, hash)
}
