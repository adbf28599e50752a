// Package stdtags provides a small library of general-purpose tags for an
// ftl.Engine: variable output, local assignment, conditionals, iteration,
// document inclusion and comments.
//
//	engine := ftl.MustNew(ftl.WithStore(store))
//	stdtags.MustRegister(engine)
//	out, err := engine.Render(ctx, `<t:each in="users" as="u"><t:var name="u.name"/> </t:each>`)
package stdtags

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/itsatony/go-cuserr"

	ftl "github.com/itsatony/go-ftl"
)

// Tag names
const (
	TagVar     = "var"
	TagLet     = "let"
	TagIf      = "if"
	TagUnless  = "unless"
	TagEach    = "each"
	TagInclude = "include"
	TagComment = "comment"
	TagNesting = "nesting"
)

// Attribute names and defaults
const (
	AttrName        = "name"
	AttrDefault     = "default"
	AttrTest        = "test"
	AttrIn          = "in"
	AttrAs          = "as"
	DefaultItemName = "item"
	IndexName       = "index"
)

// Error codes and messages
const (
	ErrCodeAttribute  = "FTL_STDTAGS_ATTRIBUTE"
	ErrCodeExpression = "FTL_STDTAGS_EXPRESSION"
	ErrCodeIteration  = "FTL_STDTAGS_ITERATION"

	ErrMsgMissingAttribute = "required attribute missing"
	ErrMsgExpression       = "condition expression failed"
	ErrMsgNotIterable      = "value is not iterable"
	ErrMsgUndefinedValue   = "iterated variable is not defined"

	MetaKeyAttribute  = "attribute"
	MetaKeyTag        = "tag"
	MetaKeyExpression = "expression"
	MetaKeyVariable   = "variable"
	MetaKeyKind       = "kind"
)

// Register defines every standard tag on engine.
func Register(engine *ftl.Engine) error {
	for _, def := range []struct {
		path string
		fn   ftl.HandlerFunc
	}{
		{TagVar, Var},
		{TagLet, Let},
		{TagIf, If},
		{TagUnless, Unless},
		{TagEach, Each},
		{TagInclude, Include},
		{TagComment, Comment},
		{TagNesting, Nesting},
	} {
		if err := engine.Define(def.path, def.fn); err != nil {
			return err
		}
	}
	return nil
}

// MustRegister calls Register and panics on error.
func MustRegister(engine *ftl.Engine) {
	if err := Register(engine); err != nil {
		panic(err)
	}
}

// Var prints the visible value of the variable named by "name". Dot paths
// walk nested maps; "default" is used when the value is absent.
func Var(b *ftl.Binding) (string, error) {
	name, err := required(b, AttrName)
	if err != nil {
		return "", err
	}
	val, ok := b.Locals.Lookup(name)
	if !ok {
		return b.Attr.GetDefault(AttrDefault, ""), nil
	}
	return format(val), nil
}

// Let sets every attribute in the tag's local scope and expands the block,
// so the tags inside see the values.
func Let(b *ftl.Binding) (string, error) {
	for _, key := range b.Attr.Keys() {
		val, _ := b.Attr.Get(key)
		b.Locals.Set(key, val)
	}
	return b.Expand()
}

// If expands the block when the "test" expression is true.
func If(b *ftl.Binding) (string, error) {
	return conditional(b, true)
}

// Unless expands the block when the "test" expression is false.
func Unless(b *ftl.Binding) (string, error) {
	return conditional(b, false)
}

func conditional(b *ftl.Binding, want bool) (string, error) {
	test, err := required(b, AttrTest)
	if err != nil {
		return "", err
	}
	ok, err := Evaluate(test, b.Locals.Flatten())
	if err != nil {
		return "", err
	}
	if ok != want || b.IsSingle() {
		return "", nil
	}
	return b.Expand()
}

// Evaluate runs an expr-lang boolean expression against env. Undefined
// names evaluate to nil.
func Evaluate(test string, env map[string]any) (bool, error) {
	program, err := expr.Compile(test, expr.Env(env), expr.AllowUndefinedVariables(), expr.AsBool())
	if err != nil {
		return false, cuserr.WrapStdError(err, ErrCodeExpression, ErrMsgExpression).
			WithMetadata(MetaKeyExpression, test)
	}
	out, err := expr.Run(program, env)
	if err != nil {
		return false, cuserr.WrapStdError(err, ErrCodeExpression, ErrMsgExpression).
			WithMetadata(MetaKeyExpression, test)
	}
	result, _ := out.(bool)
	return result, nil
}

// Each expands the block once per element of the slice, array or map named
// by "in". The element is bound to "as" (default "item") and its position
// or map key to "index". Maps are visited in sorted key order.
func Each(b *ftl.Binding) (string, error) {
	in, err := required(b, AttrIn)
	if err != nil {
		return "", err
	}
	as := b.Attr.GetDefault(AttrAs, DefaultItemName)

	val, ok := b.Locals.Lookup(in)
	if !ok {
		return "", cuserr.NewValidationError(ErrCodeIteration, ErrMsgUndefinedValue).
			WithMetadata(MetaKeyVariable, in)
	}
	if b.IsSingle() {
		return "", nil
	}

	var sb strings.Builder
	emit := func(index, item any) error {
		b.Locals.Set(as, item)
		b.Locals.Set(IndexName, index)
		out, err := b.Expand()
		if err != nil {
			return err
		}
		sb.WriteString(out)
		return nil
	}

	rv := reflect.ValueOf(val)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		for i := 0; i < rv.Len(); i++ {
			if err := emit(i, rv.Index(i).Interface()); err != nil {
				return "", err
			}
		}
	case reflect.Map:
		keys := rv.MapKeys()
		sort.Slice(keys, func(i, j int) bool {
			return format(keys[i].Interface()) < format(keys[j].Interface())
		})
		for _, key := range keys {
			if err := emit(key.Interface(), rv.MapIndex(key).Interface()); err != nil {
				return "", err
			}
		}
	default:
		return "", cuserr.NewValidationError(ErrCodeIteration, ErrMsgNotIterable).
			WithMetadata(MetaKeyVariable, in).
			WithMetadata(MetaKeyKind, rv.Kind().String())
	}
	return sb.String(), nil
}

// Include renders the stored document named by "name" as a nested parse.
func Include(b *ftl.Binding) (string, error) {
	name, err := required(b, AttrName)
	if err != nil {
		return "", err
	}
	doc, err := b.Engine().Load(b.Context(), name)
	if err != nil {
		return "", err
	}
	return b.ParseAsNested(doc.Source)
}

// Comment renders nothing.
func Comment(b *ftl.Binding) (string, error) {
	return "", nil
}

// Nesting renders the nesting string of the enclosing tags.
func Nesting(b *ftl.Binding) (string, error) {
	stack := b.Stack()
	return strings.Join(stack[:len(stack)-1], ftl.PathSeparator), nil
}

func required(b *ftl.Binding, attr string) (string, error) {
	val, ok := b.Attr.Get(attr)
	if !ok {
		return "", cuserr.NewValidationError(ErrCodeAttribute, ErrMsgMissingAttribute).
			WithMetadata(MetaKeyAttribute, attr).
			WithMetadata(MetaKeyTag, b.Name)
	}
	return val, nil
}

// format renders a scope value as text.
func format(val any) string {
	switch v := val.(type) {
	case nil:
		return ""
	case string:
		return v
	case int:
		return strconv.Itoa(v)
	case bool:
		return strconv.FormatBool(v)
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}
