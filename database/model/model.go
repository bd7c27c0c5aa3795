package model

import (
	"encoding/json"
	"time"
)

type ModuleType string

const (
	ModuleTypeSystem  ModuleType = "SYSTEM"
	ModuleTypeService ModuleType = "SERVICE"
	ModuleTypeUser    ModuleType = "USER"
)

// ValidModuleType reports whether s is one of the known module type names.
func ValidModuleType(s string) bool {
	switch ModuleType(s) {
	case ModuleTypeSystem, ModuleTypeService, ModuleTypeUser:
		return true
	}
	return false
}

type User struct {
	Id        int       `json:"id" gorm:"primaryKey;autoIncrement"`
	Name      string    `json:"name"`
	Username  string    `json:"username" gorm:"unique"`
	Password  string    `json:"-"`
	Role      string    `json:"role" gorm:"default:SU"`
	Active    bool      `json:"active" gorm:"default:true"`
	CreatedAt time.Time `json:"createdAt"`
}

// Module is a registered dashboard module. The natural key is (Module, UserId):
// the same module key may exist once per user.
type Module struct {
	Id               int        `json:"id" form:"id" gorm:"primaryKey;autoIncrement"`
	Name             string     `json:"name" form:"name"`
	Module           string     `json:"module" form:"module" gorm:"index:idx_module_user,unique"`
	Description      string     `json:"description" form:"description"`
	Category         string     `json:"category" form:"category"`
	PaneComponent    string     `json:"paneComponent" form:"paneComponent"`
	StaticIdentifier string     `json:"staticIdentifier" form:"staticIdentifier"`
	DefaultSize      GridSize   `json:"defaultSize" form:"defaultSize" gorm:"serializer:json"`
	Visible          bool       `json:"visible" form:"visible" gorm:"default:true"`
	SupportsStatus   bool       `json:"supportsStatus" form:"supportsStatus"`
	SocketNamespace  string     `json:"socketNamespace" form:"socketNamespace"`
	Autostart        bool       `json:"autostart" form:"autostart"`
	LogoUrl          string     `json:"logoUrl" form:"logoUrl"`
	ModuleType       ModuleType `json:"moduleType" form:"moduleType"`
	IsInstalled      bool       `json:"isInstalled" gorm:"default:false"`
	CreatedAt        time.Time  `json:"createdAt"`
	UserId           int        `json:"userId" gorm:"index:idx_module_user,unique"`
}

// GridSize is the default pane footprint suggested to the client.
type GridSize struct {
	W int `json:"w"`
	H int `json:"h"`
}

// Service is the supervised process behind a SERVICE module. Status is a
// denormalized copy of the last supervisor answer.
type Service struct {
	Id              int        `json:"id" gorm:"primaryKey;autoIncrement"`
	Name            string     `json:"name" gorm:"unique"`
	Description     string     `json:"description"`
	Path            string     `json:"path"`
	Autostart       bool       `json:"autostart"`
	Visible         bool       `json:"visible" gorm:"default:true"`
	SupportsStatus  bool       `json:"supportsStatus" gorm:"default:true"`
	SocketNamespace string     `json:"socketNamespace"`
	Status          string     `json:"status" gorm:"default:OFFLINE"`
	ModuleType      ModuleType `json:"moduleType"`
	ModuleId        int        `json:"moduleId"`
	UserId          int        `json:"userId"`
}

// GridLayout maps a responsive breakpoint to its list of placed items.
// The five breakpoints are always present after normalization.
type GridLayout map[string][]GridItem

// GridItem is one placed pane. I is "MODULETYPE-STATICID-INSTANCEID" and is
// the only interpreted field; every other grid position field the client
// sends (x, y, w, h, minW, moved, ...) is carried in Fields and stored as-is.
type GridItem struct {
	I      string
	Fields map[string]any
}

func (g GridItem) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(g.Fields)+1)
	for key, value := range g.Fields {
		out[key] = value
	}
	out["i"] = g.I
	return json.Marshal(out)
}

func (g *GridItem) UnmarshalJSON(data []byte) error {
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	id, _ := fields["i"].(string)
	delete(fields, "i")
	g.I = id
	g.Fields = fields
	return nil
}

type UserSession struct {
	Id            int            `json:"id" gorm:"primaryKey;autoIncrement"`
	UserId        int            `json:"userId" gorm:"unique"`
	GridLayout    GridLayout     `json:"gridLayout" gorm:"serializer:json"`
	ActiveModules []string       `json:"activeModules" gorm:"serializer:json"`
	Preferences   map[string]any `json:"preferences" gorm:"serializer:json"`
	PaneStates    map[string]any `json:"paneStates" gorm:"serializer:json"`
	LastActive    time.Time      `json:"lastActive"`
	CreatedAt     time.Time      `json:"createdAt"`
}

// PaneLayout is a named snapshot of a dashboard arrangement.
type PaneLayout struct {
	Id        int        `json:"id" gorm:"primaryKey;autoIncrement"`
	UserId    int        `json:"userId" gorm:"index"`
	Name      string     `json:"name"`
	Modules   []string   `json:"modules" gorm:"serializer:json"`
	Grid      GridLayout `json:"grid" gorm:"serializer:json"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// ServiceError is an append-only record of an error line found in a service log.
type ServiceError struct {
	Id         int       `json:"id" gorm:"primaryKey;autoIncrement"`
	Service    string    `json:"service" gorm:"index"`
	Message    string    `json:"message"`
	Timestamp  time.Time `json:"timestamp"`
	LogFile    string    `json:"logFile"`
	LineNumber int       `json:"lineNumber"`
	ServiceId  int       `json:"serviceId"`
}
