package astilibav

import (
	"fmt"

	"github.com/asticode/go-astiav"
)

// Dictionary holds libav options such as "key1=value1,key2=value2"
type Dictionary struct {
	content   string
	flags     astiav.DictionaryFlags
	keyValSep string
	pairsSep  string
	vs        map[string]string
}

// NewDictionary creates a new dictionary
func NewDictionary(content, keyValSep, pairsSep string, flags astiav.DictionaryFlags) *Dictionary {
	return &Dictionary{
		content:   content,
		flags:     flags,
		keyValSep: keyValSep,
		pairsSep:  pairsSep,
		vs:        make(map[string]string),
	}
}

// NewDefaultDictionary creates a new dictionary with "=" and "," separators
func NewDefaultDictionary(i string) *Dictionary {
	return NewDictionary(i, "=", ",", 0)
}

// NewDefaultDictionaryf creates a new dictionary with "=" and "," separators
func NewDefaultDictionaryf(format string, args ...interface{}) *Dictionary {
	return NewDictionary(fmt.Sprintf(format, args...), "=", ",", 0)
}

// Set sets a value that takes precedence over the parsed content
func (d *Dictionary) Set(k, v string) *Dictionary {
	d.vs[k] = v
	return d
}

// The returned dictionary must be freed by the caller
func (d *Dictionary) parse() (dd *astiav.Dictionary, err error) {
	dd = astiav.NewDictionary()
	if d.content != "" {
		if err = dd.ParseString(d.content, d.keyValSep, d.pairsSep, d.flags); err != nil {
			dd.Free()
			err = fmt.Errorf("astilibav: parsing dictionary content %s failed: %w", d.content, err)
			return
		}
	}
	for k, v := range d.vs {
		if err = dd.Set(k, v, d.flags); err != nil {
			dd.Free()
			err = fmt.Errorf("astilibav: setting dictionary key %s failed: %w", k, err)
			return
		}
	}
	return
}
