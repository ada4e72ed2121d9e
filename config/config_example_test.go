// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package config

import "fmt"

func ExampleRead() {
	defaults := Map{
		"timeout": 30000,
		"headers": map[string]any{
			"token": "abc",
		},
	}
	overrides := Map{
		"headers": map[string]any{
			"userId": 1,
		},
	}

	m, err := Read(defaults, overrides)
	if err != nil {
		fmt.Println(err)
		return
	}

	var cfg struct {
		Timeout int               `config:"timeout"`
		Headers map[string]string `config:"headers"`
	}
	err = m.Unmarshal(&cfg)
	if err != nil {
		fmt.Println(err)
		return
	}

	fmt.Println(cfg.Timeout, cfg.Headers["token"], cfg.Headers["userId"])
	// Output: 30000 abc 1
}

func ExampleMerge() {
	m := Merge(
		Map{"url": "/users", "method": "get"},
		Map{"method": "post"},
	)

	fmt.Println(m["url"], m["method"])
	// Output: /users post
}
