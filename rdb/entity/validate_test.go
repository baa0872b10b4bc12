package entity

import (
	"testing"

	"github.com/pkg/errors"
	. "github.com/smartystreets/goconvey/convey"
)

type User struct {
	ID       int32   `key:"id,identity"`
	Username string  `column:"username,required,max_length=30" error_required:"Username is required" error_max_length:"Max 30 chars"`
	Email    string  `column:"email,required" regex:"^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\\.[a-zA-Z]{2,}$" error_regex:"Invalid email format"`
	Password string  `column:"password,min_length=8" error_min_length:"Password must be at least 8 chars"`
	Bio      *string `column:"bio,allow_null"`
}

type Profile struct {
	ID       int64   `key:"id"`
	Code     string  `column:"code,allow_empty=false,max_length=3"`
	Nickname *string `column:"nickname"`
	Motto    *string `column:"motto,required,min_length=2"`
	Age      int32   `column:"age,required,max_length=1"`
	Tag      string  `column:"tag" regex:"[0-9]"`
}

func TestValidate(t *testing.T) {
	Convey("测试 Validate 方法", t, func() {
		users := MustRegister[User]()
		profiles := MustRegister[Profile]()

		Convey("收集全部自定义错误信息", func() {
			messages := users.Validate(&User{Username: "", Email: "invalid", Password: "123"})
			So(messages, ShouldResemble, []string{
				"Username is required",
				"Invalid email format",
				"Password must be at least 8 chars",
			})
		})

		Convey("校验通过", func() {
			messages := users.Validate(&User{ID: 1, Username: "john", Email: "john@example.com", Password: "password123"})
			So(messages, ShouldBeNil)
			So(users.ValidateError(&User{ID: 1, Username: "john", Email: "john@example.com", Password: "password123"}), ShouldBeNil)
		})

		Convey("空值只报 required，不报 empty", func() {
			messages := users.Validate(&User{Username: "", Email: "a@b.io", Password: "password123"})
			So(messages, ShouldResemble, []string{"Username is required"})
		})

		Convey("默认错误信息", func() {
			messages := profiles.Validate(&Profile{Code: "", Tag: "7"})
			So(messages, ShouldResemble, []string{
				"code cannot be empty",
				"nickname cannot be null",
				"motto is required",
			})

			nick, motto := "x", "a"
			messages = profiles.Validate(&Profile{Code: "ABCD", Nickname: &nick, Motto: &motto, Tag: "x"})
			So(messages, ShouldResemble, []string{
				"code exceeds max length 3",
				"motto below min length 2",
				"tag has invalid format",
			})
		})

		Convey("非文本列没有规则", func() {
			nick, motto := "x", "ab"
			messages := profiles.Validate(&Profile{Code: "A", Nickname: &nick, Motto: &motto, Age: 1234, Tag: "a1b"})
			So(messages, ShouldBeNil)
		})

		Convey("长度按字节计算", func() {
			nick, motto := "x", "ab"
			messages := profiles.Validate(&Profile{Code: "中文", Nickname: &nick, Motto: &motto, Tag: "1"})
			So(messages, ShouldResemble, []string{"code exceeds max length 3"})
		})

		Convey("ValidationError 用逗号连接", func() {
			err := users.ValidateError(&User{Username: "", Email: "invalid", Password: "password123"})
			var verr *ValidationError
			So(errors.As(err, &verr), ShouldBeTrue)
			So(err.Error(), ShouldEqual, "Username is required, Invalid email format")
		})
	})
}
