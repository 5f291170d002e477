package request

// FeeQuery 手续费估算参数
type FeeQuery struct {
	Class    string `form:"class" binding:"omitempty,oneof=transfer contract"`
	GasLimit uint64 `form:"gas_limit" binding:"omitempty,min=21000,max=30000000"`
}

// AddressURI 路径中的地址参数
type AddressURI struct {
	Address string `uri:"address" binding:"required,eth_addr"`
}
