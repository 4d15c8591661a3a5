package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// Persona 是启动时从 personality.json 读取的助手人设，加载后不可变。
type Persona struct {
	name       string
	role       string
	tone       string
	directives []string
}

type personaFile struct {
	Name       string   `json:"name"`
	Role       string   `json:"role"`
	Tone       string   `json:"tone"`
	Directives []string `json:"directives"`
}

// NewPersona 构造一个 Persona，directives 会被复制。
func NewPersona(name, role, tone string, directives []string) Persona {
	d := make([]string, len(directives))
	copy(d, directives)
	return Persona{name: name, role: role, tone: tone, directives: d}
}

// LoadPersona 读取并解析人设文件。name 与 role 为必填项。
func LoadPersona(path string) (Persona, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Persona{}, fmt.Errorf("无法读取人设文件 '%s': %w", path, err)
	}
	var pf personaFile
	if err := json.Unmarshal(data, &pf); err != nil {
		return Persona{}, fmt.Errorf("解析人设文件失败: %w", err)
	}
	if pf.Name == "" || pf.Role == "" {
		return Persona{}, fmt.Errorf("人设文件 '%s' 缺少 name 或 role", path)
	}
	return NewPersona(pf.Name, pf.Role, pf.Tone, pf.Directives), nil
}

func (p Persona) Name() string { return p.name }
func (p Persona) Role() string { return p.role }
func (p Persona) Tone() string { return p.tone }

// Directives 返回指令列表的副本。
func (p Persona) Directives() []string {
	d := make([]string, len(p.directives))
	copy(d, p.directives)
	return d
}
