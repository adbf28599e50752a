package ftl_test

import (
	"context"
	"fmt"
	"strings"

	ftl "github.com/itsatony/go-ftl"
)

func Example() {
	engine := ftl.MustNew()
	engine.MustDefine("greet", ftl.HandlerFunc(func(b *ftl.Binding) (string, error) {
		b.Locals.Set("who", b.Attr.GetDefault("name", "World"))
		return b.Expand()
	}))
	engine.MustDefine("greet:name", ftl.HandlerFunc(func(b *ftl.Binding) (string, error) {
		return b.Locals.GetString("who") + "!", nil
	}))

	out, err := engine.Render(context.Background(), `<t:greet name="Sam">Hi <t:name/></t:greet>`)
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println(out)
	// Output: Hi Sam!
}

func ExampleEngine_Define_nested() {
	engine := ftl.MustNew()
	engine.MustDefine("list", ftl.HandlerFunc(func(b *ftl.Binding) (string, error) {
		out, err := b.Expand()
		return "<ul>" + strings.TrimSpace(out) + "</ul>", err
	}))
	engine.MustDefine("list:item", ftl.HandlerFunc(func(b *ftl.Binding) (string, error) {
		out, err := b.Expand()
		return "<li>" + out + "</li>", err
	}))
	engine.MustDefine("item", ftl.HandlerFunc(func(b *ftl.Binding) (string, error) {
		return "*", nil
	}))

	out, _ := engine.Render(context.Background(),
		`<t:list><t:item>a</t:item><t:item>b</t:item></t:list> <t:item/>`)
	fmt.Println(out)
	// Output: <ul><li>a</li><li>b</li></ul> *
}

func ExampleWithMissingStrategy() {
	engine := ftl.MustNew(ftl.WithMissingStrategy(ftl.MissingStrategyComment))

	out, _ := engine.Render(context.Background(), `a<t:unknown/>b`)
	fmt.Println(out)
	// Output: a<!-- tag missing: unknown, scope:  -->b
}
