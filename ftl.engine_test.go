package ftl

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/itsatony/go-cuserr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// text returns a handler that always renders s.
func text(s string) HandlerFunc {
	return func(b *Binding) (string, error) { return s, nil }
}

// expand returns a handler that renders its block between l and r.
func expand(l, r string) HandlerFunc {
	return func(b *Binding) (string, error) {
		out, err := b.Expand()
		if err != nil {
			return "", err
		}
		return l + out + r, nil
	}
}

func render(t *testing.T, e *Engine, source string) string {
	t.Helper()
	out, err := e.Render(context.Background(), source)
	require.NoError(t, err)
	return out
}

func metadata(t *testing.T, err error, key string) string {
	t.Helper()
	var customErr *cuserr.CustomError
	require.True(t, errors.As(err, &customErr))
	val, ok := customErr.GetMetadata(key)
	require.True(t, ok, key)
	return val
}

func TestNew(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		e, err := New()
		require.NoError(t, err)
		assert.Equal(t, DefaultTagPrefix, e.TagPrefix())
		assert.Equal(t, DefaultMaxDepth, e.MaxDepth())
		assert.NotNil(t, e.Logger())
		assert.NotNil(t, e.Globals())
		assert.Nil(t, e.Store())
		assert.Empty(t, e.Paths())
	})

	t.Run("invalid prefix", func(t *testing.T) {
		_, err := New(WithTagPrefix("a b"))
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInvalidDefinition))
	})

	t.Run("MustNew panics on invalid prefix", func(t *testing.T) {
		assert.Panics(t, func() { MustNew(WithTagPrefix("")) })
	})

	t.Run("globals", func(t *testing.T) {
		e := MustNew(WithGlobals(map[string]any{"a": 1}), WithGlobals(map[string]any{"b": 2}))
		assert.Equal(t, 1, e.Globals().GetDefault("a", nil))
		assert.Equal(t, 2, e.Globals().GetDefault("b", nil))
	})
}

func TestEngine_Define(t *testing.T) {
	t.Run("nil handler", func(t *testing.T) {
		e := MustNew()
		err := e.Define("a", nil)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInvalidDefinition))
		assert.Contains(t, err.Error(), ErrMsgNilHandler)

		var fn HandlerFunc
		assert.True(t, errors.Is(e.Define("a", fn), ErrInvalidDefinition))
		assert.True(t, errors.Is(e.DefineFunc("a", nil), ErrInvalidDefinition))
		assert.False(t, e.Defined("a"))
	})

	t.Run("invalid path", func(t *testing.T) {
		e := MustNew()
		err := e.Define("a b", text("x"))
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInvalidDefinition))
		assert.Equal(t, "a b", metadata(t, err, MetaKeyValue))
	})

	t.Run("MustDefine panics", func(t *testing.T) {
		assert.Panics(t, func() { MustNew().MustDefine("", text("x")) })
	})

	t.Run("redefinition replaces handler", func(t *testing.T) {
		e := MustNew()
		e.MustDefine("a", text("1"))
		e.MustDefine("b", text("2"))
		e.MustDefine("a", text("3"))
		assert.Equal(t, "3", render(t, e, "<t:a/>"))
		assert.Equal(t, []string{"a", "b"}, e.Paths())
	})
}

func TestEngine_Render(t *testing.T) {
	t.Run("self-closing tag in text", func(t *testing.T) {
		e := MustNew()
		require.NoError(t, e.DefineFunc("foo", func(b *Binding) (string, error) {
			assert.Equal(t, "v", b.Attr.GetDefault("k", ""))
			assert.True(t, b.IsSingle())
			return "X", nil
		}))
		assert.Equal(t, "AXB", render(t, e, `A<t:foo k="v"/>B`))
	})

	t.Run("handler passes values to its block", func(t *testing.T) {
		e := MustNew()
		e.MustDefine("greet", HandlerFunc(func(b *Binding) (string, error) {
			b.Locals.Set("who", b.Attr.GetDefault("name", "World"))
			return b.Expand()
		}))
		e.MustDefine("name", HandlerFunc(func(b *Binding) (string, error) {
			return b.Locals.GetString("who") + "!", nil
		}))
		assert.Equal(t, "Hi Sam!", render(t, e, `<t:greet name="Sam">Hi <t:name/></t:greet>`))
	})

	t.Run("plain text passes through", func(t *testing.T) {
		e := MustNew()
		assert.Equal(t, "a < b > c <x:y/>", render(t, e, "a < b > c <x:y/>"))
		assert.Equal(t, "", render(t, e, ""))
	})

	t.Run("handler output is not rescanned", func(t *testing.T) {
		e := MustNew()
		e.MustDefine("raw", text("<t:raw/>"))
		assert.Equal(t, "<t:raw/>", render(t, e, "<t:raw/>"))
	})

	t.Run("empty block is double", func(t *testing.T) {
		e := MustNew()
		e.MustDefine("s", HandlerFunc(func(b *Binding) (string, error) {
			return fmt.Sprintf("%v/%v/%d", b.IsSingle(), b.IsDouble(), len(b.Block)), nil
		}))
		assert.Equal(t, "false/true/0", render(t, e, "<t:s></t:s>"))
		assert.Equal(t, "true/false/0", render(t, e, "<t:s/>"))
	})

	t.Run("attributes never nil", func(t *testing.T) {
		e := MustNew()
		e.MustDefine("a", HandlerFunc(func(b *Binding) (string, error) {
			require.NotNil(t, b.Attr)
			return b.Attr.GetDefault("x", "none"), nil
		}))
		assert.Equal(t, "none", render(t, e, "<t:a/>"))
	})

	t.Run("custom prefix", func(t *testing.T) {
		e := MustNew(WithTagPrefix("x"))
		e.MustDefine("foo", text("F"))
		assert.Equal(t, "F<t:foo/>", render(t, e, "<x:foo/><t:foo/>"))
		assert.Equal(t, "x", e.TagPrefix())
	})

	t.Run("binding render dispatches nested", func(t *testing.T) {
		e := MustNew()
		e.MustDefine("list", HandlerFunc(func(b *Binding) (string, error) {
			var sb strings.Builder
			for i := 1; i <= 3; i++ {
				out, err := b.Render("item", Attributes{"n": fmt.Sprint(i)}, nil)
				if err != nil {
					return "", err
				}
				sb.WriteString(out)
			}
			return sb.String(), nil
		}))
		e.MustDefine("list:item", HandlerFunc(func(b *Binding) (string, error) {
			return "[" + b.Attr.GetDefault("n", "") + "]", nil
		}))
		assert.Equal(t, "[1][2][3]", render(t, e, "<t:list/>"))
	})
}

func TestEngine_Resolution(t *testing.T) {
	t.Run("exact nested path beats partial", func(t *testing.T) {
		e := MustNew()
		e.MustDefine("a", expand("", ""))
		e.MustDefine("a:b", text("H1"))
		e.MustDefine("b", text("H2"))

		assert.Equal(t, "H1", render(t, e, "<t:a><t:b/></t:a>"))
		assert.Equal(t, "H2", render(t, e, "<t:b/>"))
	})

	t.Run("deeper suffix wins", func(t *testing.T) {
		e := MustNew()
		for _, path := range []string{"x", "y", "z"} {
			e.MustDefine(path, expand("", ""))
		}
		e.MustDefine("z:q", text("shallow"))
		e.MustDefine("y:z:q", text("deep"))

		assert.Equal(t, "deep", render(t, e, "<t:x><t:y><t:z><t:q/></t:z></t:y></t:x>"))

		path, ok := e.Resolve("q", []string{"x", "y", "z"})
		require.True(t, ok)
		assert.Equal(t, "y:z:q", path)
	})

	t.Run("partial match skips unrelated ancestors", func(t *testing.T) {
		e := MustNew()
		e.MustDefine("list", expand("", ""))
		e.MustDefine("wrap", expand("(", ")"))
		e.MustDefine("list:item", text("i"))

		assert.Equal(t, "(i)", render(t, e, "<t:list><t:wrap><t:item/></t:wrap></t:list>"))
	})

	t.Run("stack snapshot", func(t *testing.T) {
		e := MustNew()
		var stack []string
		var nesting string
		e.MustDefine("a", expand("", ""))
		e.MustDefine("b", HandlerFunc(func(b *Binding) (string, error) {
			stack = b.Stack()
			nesting = b.Nesting()
			return "", nil
		}))
		render(t, e, "<t:a><t:b/></t:a>")
		assert.Equal(t, []string{"a", "b"}, stack)
		assert.Equal(t, "a:b", nesting)
	})
}

func TestEngine_CompoundNames(t *testing.T) {
	newEngine := func() *Engine {
		e := MustNew()
		e.MustDefine("a", HandlerFunc(func(b *Binding) (string, error) {
			out, err := b.Expand()
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("a%d[%s]", len(b.Attr), out), nil
		}))
		e.MustDefine("b", HandlerFunc(func(b *Binding) (string, error) {
			return fmt.Sprintf("b(k=%s,single=%v,nesting=%s)",
				b.Attr.GetDefault("k", ""), b.IsSingle(), b.Nesting()), nil
		}))
		return e
	}

	t.Run("single compound equals nested single", func(t *testing.T) {
		e := newEngine()
		compound := render(t, e, `<t:a:b k="v"/>`)
		nested := render(t, e, `<t:a><t:b k="v"/></t:a>`)
		assert.Equal(t, "a0[b(k=v,single=true,nesting=a:b)]", compound)
		assert.Equal(t, nested, compound)
	})

	t.Run("block compound keeps its block", func(t *testing.T) {
		e := newEngine()
		assert.Equal(t, "a0[b(k=v,single=false,nesting=a:b)]", render(t, e, `<t:a:b k="v">x</t:a:b>`))
	})

	t.Run("multi-level compound", func(t *testing.T) {
		e := newEngine()
		e.MustDefine("c", text("C"))
		assert.Equal(t, "a0[a0[C]]", render(t, e, `<t:a:a:c/>`))
	})
}

func TestEngine_Scopes(t *testing.T) {
	t.Run("reads fall through, writes stay local", func(t *testing.T) {
		e := MustNew(WithGlobals(map[string]any{"site": "S"}))
		var outerSeesInner bool
		e.MustDefine("outer", HandlerFunc(func(b *Binding) (string, error) {
			b.Locals.Set("x", "1")
			out, err := b.Expand()
			outerSeesInner = b.Locals.Has("y")
			return out, err
		}))
		e.MustDefine("inner", HandlerFunc(func(b *Binding) (string, error) {
			b.Locals.Set("y", "2")
			return b.Locals.GetString("x") + b.Locals.GetString("site"), nil
		}))

		assert.Equal(t, "1S", render(t, e, "<t:outer><t:inner/></t:outer>"))
		assert.False(t, outerSeesInner)
		assert.False(t, e.Globals().Has("x"))
	})

	t.Run("top level chains to globals", func(t *testing.T) {
		e := MustNew(WithGlobals(map[string]any{"g": "G"}))
		e.MustDefine("a", HandlerFunc(func(b *Binding) (string, error) {
			assert.Same(t, e.Globals(), b.Locals.Parent())
			assert.Same(t, e.Globals(), b.Globals)
			return b.Locals.GetString("g"), nil
		}))
		assert.Equal(t, "G", render(t, e, "<t:a/>"))
	})

	t.Run("siblings do not share locals", func(t *testing.T) {
		e := MustNew()
		e.MustDefine("set", HandlerFunc(func(b *Binding) (string, error) {
			b.Locals.Set("v", "set")
			return "", nil
		}))
		e.MustDefine("get", HandlerFunc(func(b *Binding) (string, error) {
			return b.Locals.GetString("v"), nil
		}))
		assert.Equal(t, "", render(t, e, "<t:set/><t:get/>"))
	})
}

func TestEngine_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("unbalanced", func(t *testing.T) {
		e := MustNew()
		_, err := e.Render(ctx, "<t:a>x</t:b>")
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrUnbalancedTag))
		assert.Equal(t, "b", metadata(t, err, MetaKeyTag))
		assert.Equal(t, "a", metadata(t, err, MetaKeyExpected))
		assert.Equal(t, "1", metadata(t, err, MetaKeyLine))
	})

	t.Run("unterminated", func(t *testing.T) {
		_, err := MustNew().Parse("<t:a><t:b></t:b>")
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrUnbalancedTag))
		assert.Equal(t, "a", metadata(t, err, MetaKeyTag))
	})

	t.Run("balanced input parses", func(t *testing.T) {
		e := MustNew()
		for _, src := range []string{
			"",
			"text",
			"<t:a></t:a>",
			"<t:a><t:b>x</t:b><t:c/></t:a>",
			`<t:a k="</t:b>">x</t:a>`,
			"</x:a><t:a>y</t:a>",
		} {
			_, err := e.Parse(src)
			assert.NoError(t, err, src)
		}
	})

	t.Run("tag missing with suggestions", func(t *testing.T) {
		e := MustNew()
		e.MustDefine("a", expand("", ""))
		e.MustDefine("user", text("u"))

		_, err := e.Render(ctx, "x\n<t:a>\n  <t:usr/></t:a>")
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrTagMissing))
		assert.False(t, errors.Is(err, ErrHandlerInvocation))
		assert.Equal(t, "usr", metadata(t, err, MetaKeyTag))
		assert.Equal(t, "a", metadata(t, err, MetaKeyNesting))
		assert.Contains(t, metadata(t, err, MetaKeySuggestions), "user")
		assert.Equal(t, "3", metadata(t, err, MetaKeyLine))
		assert.Equal(t, "3", metadata(t, err, MetaKeyColumn))
		assert.Contains(t, err.Error(), `tag missing: "usr", scope: "a"`)
	})

	t.Run("no structural fit is missing", func(t *testing.T) {
		e := MustNew()
		e.MustDefine("x:q", text("q"))
		_, err := e.Render(ctx, "<t:q/>")
		assert.True(t, errors.Is(err, ErrTagMissing))
	})

	t.Run("handler error", func(t *testing.T) {
		e := MustNew()
		cause := errors.New("boom")
		e.MustDefine("a", expand("", ""))
		e.MustDefine("bad", HandlerFunc(func(b *Binding) (string, error) { return "", cause }))

		_, err := e.Render(ctx, "<t:a><t:bad/></t:a>")
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrHandlerInvocation))
		assert.True(t, errors.Is(err, cause))

		var herr *HandlerError
		require.True(t, errors.As(err, &herr))
		assert.Equal(t, "bad", herr.Tag)
		assert.Equal(t, "bad", herr.Path)
		assert.Equal(t, "a:bad", herr.Nesting)
	})

	t.Run("handler panic", func(t *testing.T) {
		e := MustNew()
		e.MustDefine("p", HandlerFunc(func(b *Binding) (string, error) { panic("kaboom") }))

		out, err := e.Render(ctx, "before <t:p/> after")
		require.Error(t, err)
		assert.Empty(t, out)
		assert.True(t, errors.Is(err, ErrHandlerInvocation))

		var herr *HandlerError
		require.True(t, errors.As(err, &herr))
		assert.Contains(t, herr.Cause.Error(), "kaboom")
	})

	t.Run("expand on single tag", func(t *testing.T) {
		e := MustNew()
		e.MustDefine("s", expand("", ""))
		_, err := e.Render(ctx, "<t:s/>")
		assert.True(t, errors.Is(err, ErrNoBlock))
	})

	t.Run("depth guard", func(t *testing.T) {
		e := MustNew(WithMaxDepth(10))
		e.MustDefine("loop", HandlerFunc(func(b *Binding) (string, error) {
			return b.Render("loop", nil, nil)
		}))
		_, err := e.Render(ctx, "<t:loop/>")
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrMaxDepthExceeded))
		assert.Equal(t, "10", metadata(t, err, MetaKeyMaxDepth))
	})

	t.Run("depth guard counts nested parses", func(t *testing.T) {
		e := MustNew(WithMaxDepth(20))
		e.MustDefine("rec", HandlerFunc(func(b *Binding) (string, error) {
			return b.ParseAsNested("<t:rec/>")
		}))
		_, err := e.Render(ctx, "<t:rec/>")
		assert.True(t, errors.Is(err, ErrMaxDepthExceeded))
	})

	t.Run("unlimited depth", func(t *testing.T) {
		e := MustNew(WithMaxDepth(0))
		e.MustDefine("n", HandlerFunc(func(b *Binding) (string, error) {
			if len(b.Stack()) >= 300 {
				return "done", nil
			}
			return b.Render("n", nil, nil)
		}))
		assert.Equal(t, "done", render(t, e, "<t:n/>"))
	})

	t.Run("canceled context", func(t *testing.T) {
		e := MustNew()
		e.MustDefine("a", text("a"))
		cctx, cancel := context.WithCancel(ctx)
		cancel()

		_, err := e.Render(cctx, "<t:a/>")
		assert.True(t, errors.Is(err, context.Canceled))
	})
}

func TestEngine_MissingStrategies(t *testing.T) {
	ctx := context.Background()
	source := "A<t:wrap><t:zz/></t:wrap>B"

	newEngine := func(opts ...Option) *Engine {
		e := MustNew(opts...)
		e.MustDefine("wrap", expand("", ""))
		return e
	}

	t.Run("throw by default", func(t *testing.T) {
		_, err := newEngine().Render(ctx, source)
		assert.True(t, errors.Is(err, ErrTagMissing))
	})

	t.Run("remove", func(t *testing.T) {
		out, err := newEngine(WithMissingStrategy(MissingStrategyRemove)).Render(ctx, source)
		require.NoError(t, err)
		assert.Equal(t, "AB", out)
	})

	t.Run("comment", func(t *testing.T) {
		out, err := newEngine(WithMissingStrategy(MissingStrategyComment)).Render(ctx, source)
		require.NoError(t, err)
		assert.Equal(t, "A<!-- tag missing: zz, scope: wrap -->B", out)
	})

	t.Run("custom func", func(t *testing.T) {
		e := newEngine(
			WithMissingStrategy(MissingStrategyComment),
			WithMissingFunc(func(b *Binding) (string, error) {
				return "?" + b.Name + "@" + b.Nesting(), nil
			}),
		)
		out, err := e.Render(ctx, source)
		require.NoError(t, err)
		assert.Equal(t, "A?zz@wrap:zzB", out)
	})

	t.Run("custom func error is a handler error", func(t *testing.T) {
		cause := errors.New("nope")
		e := newEngine(WithMissingFunc(func(b *Binding) (string, error) { return "", cause }))
		_, err := e.Render(ctx, source)
		assert.True(t, errors.Is(err, ErrHandlerInvocation))
		assert.True(t, errors.Is(err, cause))
	})

	t.Run("handler can defer to missing", func(t *testing.T) {
		e := newEngine(WithMissingStrategy(MissingStrategyRemove))
		e.MustDefine("maybe", HandlerFunc(func(b *Binding) (string, error) {
			return b.Missing()
		}))
		out, err := e.Render(ctx, "x<t:maybe/>y")
		require.NoError(t, err)
		assert.Equal(t, "xy", out)
	})
}

func TestEngine_ParseAsNested(t *testing.T) {
	e := MustNew(WithGlobals(map[string]any{"g": "G"}))
	e.MustDefine("outer", HandlerFunc(func(b *Binding) (string, error) {
		b.Locals.Set("local", "L")
		return b.ParseAsNested(`<t:where/>`)
	}))
	e.MustDefine("where", HandlerFunc(func(b *Binding) (string, error) {
		return b.Nesting() + "|" + b.Locals.GetString("g") + "|" + b.Locals.GetString("local"), nil
	}))
	e.MustDefine("outer:where", text("wrong"))

	assert.Equal(t, "where|G|L", render(t, e, "<t:outer/>"))

	t.Run("unbalanced nested text", func(t *testing.T) {
		e := MustNew()
		e.MustDefine("bad", HandlerFunc(func(b *Binding) (string, error) {
			return b.ParseAsNested("<t:x>")
		}))
		_, err := e.Render(context.Background(), "<t:bad/>")
		assert.True(t, errors.Is(err, ErrUnbalancedTag))
	})
}

func TestDocument(t *testing.T) {
	e := MustNew()
	count := 0
	e.MustDefine("n", HandlerFunc(func(b *Binding) (string, error) {
		count++
		return fmt.Sprint(count), nil
	}))

	doc, err := e.Parse(`<t:n/>-<t:x k="v"></t:x>`)
	require.NoError(t, err)
	assert.Contains(t, doc.String(), "TagNode{x")

	e.MustDefine("x", text("x"))
	ctx := context.Background()
	out1, err := doc.Render(ctx)
	require.NoError(t, err)
	out2, err := doc.Render(ctx)
	require.NoError(t, err)
	assert.Equal(t, "1-x", out1)
	assert.Equal(t, "2-x", out2)
}

func TestDocument_AttributesNotShared(t *testing.T) {
	e := MustNew()
	e.MustDefine("a", HandlerFunc(func(b *Binding) (string, error) {
		v := b.Attr["n"]
		b.Attr["n"] = v + "x"
		return v, nil
	}))

	doc, err := e.Parse(`<t:a n="1"></t:a>`)
	require.NoError(t, err)

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		out, err := doc.Render(ctx)
		require.NoError(t, err)
		assert.Equal(t, "1", out)
	}
}

func TestEngine_RenderNodes(t *testing.T) {
	e := MustNew()
	e.MustDefine("a", expand("<", ">"))
	e.MustDefine("b", text("B"))

	nodes := []Node{
		NewTextNode("x"),
		NewTagNode("a", Attributes{}, []Node{NewTextNode("<t:b/>"), NewTagNode("b", nil, nil)}),
	}
	out, err := e.RenderNodes(context.Background(), nodes)
	require.NoError(t, err)
	assert.Equal(t, "x<BB>", out)
}

func TestEngine_RenderNamed(t *testing.T) {
	ctx := context.Background()

	t.Run("from store", func(t *testing.T) {
		store := NewMemoryStore()
		require.NoError(t, store.Put(ctx, &StoredDocument{Name: "page", Source: "Hello <t:who/>"}))

		e := MustNew(WithStore(store))
		e.MustDefine("who", text("you"))

		out, err := e.RenderNamed(ctx, "page")
		require.NoError(t, err)
		assert.Equal(t, "Hello you", out)

		_, err = e.RenderNamed(ctx, "missing")
		assert.True(t, errors.Is(err, ErrDocumentNotFound))
	})

	t.Run("no store", func(t *testing.T) {
		_, err := MustNew().RenderNamed(ctx, "page")
		assert.True(t, errors.Is(err, ErrNoStore))
	})
}

func TestEngine_ConcurrentRender(t *testing.T) {
	e := MustNew()
	e.MustDefine("set", HandlerFunc(func(b *Binding) (string, error) {
		b.Locals.Set("v", b.Attr.GetDefault("v", ""))
		return b.Expand()
	}))
	e.MustDefine("get", HandlerFunc(func(b *Binding) (string, error) {
		return b.Locals.GetString("v"), nil
	}))

	var wg sync.WaitGroup
	results := make([]string, 50)
	errs := make([]error, 50)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			src := fmt.Sprintf(`<t:set v="%d"><t:get/></t:set>`, i)
			results[i], errs[i] = e.Render(context.Background(), src)
		}(i)
	}
	wg.Wait()

	for i := range results {
		require.NoError(t, errs[i])
		assert.Equal(t, fmt.Sprint(i), results[i])
	}
}
