package sandbox

import (
	"strings"

	"github.com/dop251/goja"
	"golang.org/x/net/html"
)

// document builds the JS document object over dom
func (r *Runtime) document(dom *DOM) *goja.Object {
	doc := r.vm.NewObject()
	vm := r.vm

	_ = doc.Set("getElementById", func(id string) goja.Value {
		return r.element(dom, dom.ByID(id))
	})
	_ = doc.Set("querySelector", func(selector string) goja.Value {
		nodes := dom.Query(selector)
		if len(nodes) == 0 {
			return goja.Null()
		}
		return r.element(dom, nodes[0])
	})
	_ = doc.Set("querySelectorAll", func(selector string) goja.Value {
		return r.elements(dom, dom.Query(selector))
	})
	_ = doc.Set("getElementsByTagName", func(tag string) goja.Value {
		return r.elements(dom, dom.Query(tag))
	})
	_ = doc.Set("getElementsByClassName", func(class string) goja.Value {
		return r.elements(dom, dom.Query("."+class))
	})
	_ = doc.Set("createElement", func(tag string) goja.Value {
		return r.element(dom, NewElement(tag))
	})
	_ = doc.Set("createTextNode", func(text string) goja.Value {
		return r.element(dom, NewText(text))
	})
	_ = doc.Set("addEventListener", func(goja.FunctionCall) goja.Value { return goja.Undefined() })

	r.accessor(doc, "body", func() goja.Value { return r.element(dom, dom.Body()) }, nil)
	r.accessor(doc, "head", func() goja.Value { return r.element(dom, dom.Head()) }, nil)
	r.accessor(doc, "documentElement", func() goja.Value {
		nodes := dom.Query("html")
		if len(nodes) == 0 {
			return goja.Null()
		}
		return r.element(dom, nodes[0])
	}, nil)
	r.accessor(doc, "title", func() goja.Value {
		return vm.ToValue(strings.TrimSpace(dom.Text("title")))
	}, nil)
	return doc
}

func (r *Runtime) elements(dom *DOM, nodes []*html.Node) goja.Value {
	out := make([]interface{}, len(nodes))
	for i, n := range nodes {
		out[i] = r.element(dom, n)
	}
	return r.vm.NewArray(out...)
}

// element returns the proxy for n, creating it once per run so identity
// comparisons in scripts hold.
func (r *Runtime) element(dom *DOM, n *html.Node) goja.Value {
	if n == nil {
		return goja.Null()
	}
	if obj, ok := r.proxies[n]; ok {
		return obj
	}

	obj := r.vm.NewObject()
	r.proxies[n] = obj
	r.nodes[obj] = n

	if n.Type == html.TextNode {
		_ = obj.Set("nodeType", 3)
		r.accessor(obj, "textContent", func() goja.Value { return r.vm.ToValue(n.Data) }, func(v goja.Value) {
			n.Data = v.String()
		})
		return obj
	}

	_ = obj.Set("nodeType", 1)
	_ = obj.Set("tagName", strings.ToUpper(n.Data))
	_ = obj.Set("nodeName", strings.ToUpper(n.Data))
	r.attrAccessor(dom, obj, n, "id", "id")
	r.attrAccessor(dom, obj, n, "className", "class")

	r.accessor(obj, "innerHTML", func() goja.Value {
		return r.vm.ToValue(dom.InnerHTML(n))
	}, func(v goja.Value) {
		if err := dom.SetInnerHTML(n, v.String()); err != nil {
			panic(r.vm.NewTypeError("innerHTML: %v", err))
		}
	})
	r.accessor(obj, "textContent", func() goja.Value {
		return r.vm.ToValue(dom.InnerText(n))
	}, func(v goja.Value) {
		dom.SetText(n, v.String())
	})
	r.accessor(obj, "parentNode", func() goja.Value {
		if n.Parent == nil || n.Parent.Type != html.ElementNode {
			return goja.Null()
		}
		return r.element(dom, n.Parent)
	}, nil)
	r.accessor(obj, "firstChild", func() goja.Value {
		return r.element(dom, n.FirstChild)
	}, nil)

	_ = obj.Set("getAttribute", func(name string) goja.Value {
		if v, ok := dom.Attr(n, name); ok {
			return r.vm.ToValue(v)
		}
		return goja.Null()
	})
	_ = obj.Set("setAttribute", func(name, value string) {
		dom.SetAttr(n, name, value)
	})
	_ = obj.Set("removeAttribute", func(name string) {
		dom.RemoveAttr(n, name)
	})
	_ = obj.Set("appendChild", func(child goja.Value) goja.Value {
		c := r.nodeOf(child)
		dom.Append(n, c)
		return child
	})
	_ = obj.Set("removeChild", func(child goja.Value) goja.Value {
		if !dom.Remove(n, r.nodeOf(child)) {
			panic(r.vm.NewTypeError("removeChild: node is not a child"))
		}
		return child
	})
	_ = obj.Set("querySelector", func(selector string) goja.Value {
		for _, m := range dom.Query(selector) {
			if within(m, n) {
				return r.element(dom, m)
			}
		}
		return goja.Null()
	})
	_ = obj.Set("addEventListener", func(goja.FunctionCall) goja.Value { return goja.Undefined() })
	_ = obj.Set("removeEventListener", func(goja.FunctionCall) goja.Value { return goja.Undefined() })
	return obj
}

func (r *Runtime) nodeOf(v goja.Value) *html.Node {
	obj, ok := v.(*goja.Object)
	if ok {
		if n, found := r.nodes[obj]; found {
			return n
		}
	}
	panic(r.vm.NewTypeError("argument is not a node"))
}

func (r *Runtime) attrAccessor(dom *DOM, obj *goja.Object, n *html.Node, prop, attr string) {
	r.accessor(obj, prop, func() goja.Value {
		v, _ := dom.Attr(n, attr)
		return r.vm.ToValue(v)
	}, func(v goja.Value) {
		dom.SetAttr(n, attr, v.String())
	})
}

func (r *Runtime) accessor(obj *goja.Object, name string, get func() goja.Value, set func(goja.Value)) {
	getter := r.vm.ToValue(func(goja.FunctionCall) goja.Value { return get() })
	var setter goja.Value
	if set != nil {
		setter = r.vm.ToValue(func(call goja.FunctionCall) goja.Value {
			set(call.Argument(0))
			return goja.Undefined()
		})
	}
	_ = obj.DefineAccessorProperty(name, getter, setter, goja.FLAG_TRUE, goja.FLAG_TRUE)
}

// within reports whether n is a strict descendant of ancestor
func within(n, ancestor *html.Node) bool {
	for p := n.Parent; p != nil; p = p.Parent {
		if p == ancestor {
			return true
		}
	}
	return false
}
