package handler

import (
	"fmt"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"shiftgov/pkg/timeofday"
)

var registerOnce sync.Once

// RegisterValidators 向 Gin 的默认校验器注册自定义标签
//
//	hhmm    时间字符串（H:MM / HH:MM / HH:MM:SS，允许 24:00）
//	weekday 星期索引 0..6（0=周一）
func RegisterValidators() error {
	var err error
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			err = fmt.Errorf("binding 校验器类型不是 *validator.Validate")
			return
		}
		if err = v.RegisterValidation("hhmm", validateHHMM); err != nil {
			return
		}
		err = v.RegisterValidation("weekday", validateWeekday)
	})
	return err
}

func validateHHMM(fl validator.FieldLevel) bool {
	return timeofday.Valid(fl.Field().String())
}

func validateWeekday(fl validator.FieldLevel) bool {
	n := fl.Field().Int()
	return n >= 0 && n <= 6
}
