// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package cli

import (
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/z5labs/mount/config"
	"github.com/z5labs/mount/internal/try"
	"github.com/z5labs/mount/store"
)

// declaration is the content of a declaration file.
//
//	defaults:
//	  headers:
//	    appId: cli
//	class:
//	  baseURL: https://api.example.com
//	properties:
//	  timeoutValue: 15000
//	fields:
//	  timeout: timeoutValue
//	methods:
//	  getUser:
//	    config:
//	      method: get
//	      url: /users/:id
//	static:
//	  methods:
//	    listUsers:
//	      config:
//	        url: /users
//	      hasParams: true
type declaration struct {
	Defaults   config.Map            `config:"defaults"`
	Class      config.Map            `config:"class"`
	Properties map[string]any        `config:"properties"`
	Fields     map[string]string     `config:"fields"`
	Methods    map[string]methodDecl `config:"methods"`
	Static     scopeDecl             `config:"static"`
}

type scopeDecl struct {
	Properties map[string]any        `config:"properties"`
	Fields     map[string]string     `config:"fields"`
	Methods    map[string]methodDecl `config:"methods"`
}

type methodDecl struct {
	Config           config.Map `config:"config"`
	store.ParamFlags `config:",squash"`
}

func (m methodDecl) record() store.MethodRecord {
	return store.MethodRecord{
		Config: m.Config,
		Params: m.ParamFlags,
	}
}

// properties is the property source of a declared target.
type properties map[string]any

// Property implements the store.PropertyReader interface.
func (p properties) Property(name string) (any, bool) {
	v, ok := p[name]
	return v, ok
}

// declared is the type every declaration file is registered for.
type declared struct {
	properties
}

func readDeclaration(fsys fs.FS, path string) (_ declaration, err error) {
	f := config.NewFileReader(fsys, path)
	defer try.Close(&err, f)

	r := config.RenderTextTemplate(f)

	var src config.Source = config.FromYaml(r)
	if strings.EqualFold(filepath.Ext(path), ".json") {
		src = config.FromJson(r)
	}

	m, err := config.Read(src)
	if err != nil {
		return declaration{}, err
	}

	var d declaration
	err = m.Unmarshal(&d)
	return d, err
}

// register declares d in r and returns the instance and static
// targets calls are resolved against.
func (d declaration) register(r *store.Registry) (*declared, store.Class, error) {
	store.SetClassConfig[declared](r, d.Class)

	for name, m := range d.Methods {
		err := store.AddInstanceMethodConfig[declared](r, name, m.record())
		if err != nil {
			return nil, store.Class{}, err
		}
	}
	for name, m := range d.Static.Methods {
		err := store.AddStaticMethodConfig[declared](r, name, m.record())
		if err != nil {
			return nil, store.Class{}, err
		}
	}

	inst := &declared{properties: properties(d.Properties)}
	if len(d.Fields) > 0 {
		store.AddInstanceFieldMap(r, inst, d.Fields)
	}
	if len(d.Static.Fields) > 0 {
		store.AddStaticFieldMap[declared](r, d.Static.Fields)
	}

	class := store.ClassOf[declared](properties(d.Static.Properties))
	return inst, class, nil
}
