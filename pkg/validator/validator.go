package validator

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"arb-client/pkg/address"
	"arb-client/pkg/errno"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// TagEthAddress 以太坊地址校验规则: 40 位十六进制, 混合大小写时必须符合 EIP-55 校验和
const TagEthAddress = "eth_addr"

var once sync.Once

// Init 向 gin 的默认校验器注册自定义规则, 可重复调用
func Init() {
	once.Do(func() {
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			_ = v.RegisterValidation(TagEthAddress, func(fl validator.FieldLevel) bool {
				_, err := address.Parse(fl.Field().String())
				return err == nil
			})
		}
	})
}

// ToErrno 将绑定错误转换为带错误码的错误: 地址规则失败为 ErrInvalidAddress, 其余为 ErrBind
func ToErrno(err error) error {
	if err == nil {
		return nil
	}
	kind := errno.ErrBind
	var ves validator.ValidationErrors
	if errors.As(err, &ves) {
		for _, e := range ves {
			if e.Tag() == TagEthAddress {
				kind = errno.ErrInvalidAddress
				break
			}
		}
	}
	return errno.New(kind, "%s", GetErrorMsg(err))
}

// GetErrorMsg translates validation errors into user-friendly messages
func GetErrorMsg(err error) string {
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		return "请求参数错误"
	}
	msgs := make([]string, 0, len(ves))
	for _, e := range ves {
		field := e.Field()
		switch e.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s 不能为空", field))
		case "min":
			msgs = append(msgs, fmt.Sprintf("%s 不能小于 %s", field, e.Param()))
		case "max":
			msgs = append(msgs, fmt.Sprintf("%s 不能大于 %s", field, e.Param()))
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s 必须是 [%s] 之一", field, e.Param()))
		case TagEthAddress:
			msgs = append(msgs, fmt.Sprintf("%s %q 不是合法的以太坊地址", field, e.Value()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s 校验失败 (%s)", field, e.Tag()))
		}
	}
	return strings.Join(msgs, "; ")
}
