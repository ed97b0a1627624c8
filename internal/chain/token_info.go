package chain

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"unicode/utf8"

	"tryfi/internal/constant"
	"tryfi/internal/model"
	"tryfi/internal/types"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
)

// GetTokenInfo 获取 ERC20 代币元数据。一小时内命中缓存直接返回；
// 未命中时发起 symbol/name/decimals 三个调用，每个调用独立限时，
// 超时或出错降级为兜底值。本方法永不失败。
func (c *Client) GetTokenInfo(ctx context.Context, token common.Address) types.TokenInfo {
	key := strings.ToLower(token.Hex())

	if entry, err := c.store.GetTokenInfo(ctx, key); err == nil {
		if c.now().Sub(entry.FetchedAt) < constant.TokenInfoTTL {
			return types.TokenInfo{Symbol: entry.Symbol, Name: entry.Name, Decimals: entry.Decimals}
		}
	}

	info := types.TokenInfo{
		Symbol:   constant.FallbackSymbol,
		Name:     constant.FallbackTokenName,
		Decimals: constant.FallbackDecimals,
	}

	if symbol, err := c.callString(ctx, token, constant.SelectorSymbol); err == nil {
		info.Symbol = symbol
	} else {
		c.Infof("symbol() 查询失败，使用兜底值: %v", err)
	}
	if name, err := c.callString(ctx, token, constant.SelectorName); err == nil {
		info.Name = name
	} else {
		c.Infof("name() 查询失败，使用兜底值: %v", err)
	}
	if decimals, err := c.callUint(ctx, token, constant.SelectorDecimals); err == nil && decimals <= 77 {
		info.Decimals = int(decimals)
	} else if err != nil {
		c.Infof("decimals() 查询失败，使用兜底值: %v", err)
	}

	// 缓存写入失败不影响返回
	if err := c.store.PutTokenInfo(ctx, &model.TokenInfoEntry{
		Address:   key,
		Symbol:    info.Symbol,
		Name:      info.Name,
		Decimals:  info.Decimals,
		FetchedAt: c.now(),
	}); err != nil {
		c.Errorf("写入代币元数据缓存失败: %v", err)
	}

	return info
}

func (c *Client) callString(ctx context.Context, token common.Address, selector []byte) (string, error) {
	out, err := c.metadataCall(ctx, token, selector)
	if err != nil {
		return "", err
	}
	return decodeAbiString(out)
}

func (c *Client) callUint(ctx context.Context, token common.Address, selector []byte) (uint64, error) {
	out, err := c.metadataCall(ctx, token, selector)
	if err != nil {
		return 0, err
	}
	if len(out) == 0 {
		return 0, errors.New("empty return data")
	}
	v := new(big.Int).SetBytes(out)
	// Uint64 会静默截断超宽返回值，先做范围检查
	if !v.IsUint64() {
		return 0, errors.New("uint return value out of range")
	}
	return v.Uint64(), nil
}

// metadataCall is one read-only lookup racing a fixed deadline.
func (c *Client) metadataCall(ctx context.Context, token common.Address, selector []byte) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, constant.TokenCallTimeout)
	defer cancel()
	return c.eth.CallContract(ctx, ethereum.CallMsg{To: &token, Data: selector}, nil)
}

// decodeAbiString decodes a dynamic ABI string return value. Some older
// tokens return fixed bytes32 instead; both shapes are accepted.
func decodeAbiString(out []byte) (string, error) {
	if len(out) == 0 {
		return "", errors.New("empty return data")
	}
	if len(out) == 32 {
		// bytes32 style (e.g. MKR): trim the zero padding
		s := strings.TrimRight(string(out), "\x00")
		if s == "" || !utf8.ValidString(s) {
			return "", errors.New("undecodable bytes32 string")
		}
		return s, nil
	}
	if len(out) < 64 {
		return "", errors.New("short return data")
	}
	offset := new(big.Int).SetBytes(out[:32])
	if !offset.IsInt64() || offset.Int64()+32 > int64(len(out)) {
		return "", errors.New("bad string offset")
	}
	o := offset.Int64()
	length := new(big.Int).SetBytes(out[o : o+32])
	if !length.IsInt64() || o+32+length.Int64() > int64(len(out)) {
		return "", errors.New("bad string length")
	}
	s := string(out[o+32 : o+32+length.Int64()])
	if !utf8.ValidString(s) {
		return "", errors.New("undecodable string")
	}
	return s, nil
}
