// Package catalog provides the mitigating control catalog.
package catalog

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/turtacn/pnet/internal/domain/models"
	"github.com/turtacn/pnet/internal/domain/service"
	"github.com/turtacn/pnet/pkg/constants"
	"github.com/turtacn/pnet/pkg/errors"
)

// DefaultControls is the catalog used when no catalog file is configured.
var DefaultControls = []models.Control{
	{
		ID:            "AC-3",
		Name:          "AC-3 Access Enforcement",
		DriverFeature: constants.FeatureHasPublicExploit,
		SafeValue:     0,
		Description:   "Enforces approved authorizations so a public exploit can no longer reach the asset.",
	},
}

// StaticCatalog implements service.ControlCatalog from a fixed set of controls.
// It is loaded once at startup from a YAML file or the built-in defaults.
// StaticCatalog 使用固定的控制措施集合实现 service.ControlCatalog 接口。
// 它在启动时从 YAML 文件或内置默认值加载一次。
type StaticCatalog struct {
	controls map[string]models.Control
	order    []string
}

// catalogFile is the on-disk layout.
type catalogFile struct {
	Controls []models.Control `yaml:"controls"`
}

// NewStaticCatalog validates controls and indexes them by id. Ids are matched case-insensitively.
// NewStaticCatalog 校验控制措施并按 ID 建立索引，ID 匹配不区分大小写。
func NewStaticCatalog(controls []models.Control) (*StaticCatalog, error) {
	if len(controls) == 0 {
		return nil, errors.ErrConfiguration("control catalog is empty")
	}

	c := &StaticCatalog{controls: make(map[string]models.Control, len(controls))}
	for i, ctl := range controls {
		if strings.TrimSpace(ctl.ID) == "" {
			return nil, errors.ErrConfiguration(fmt.Sprintf("control %d has no id", i))
		}
		if ctl.DriverFeature == "" {
			return nil, errors.ErrConfiguration(fmt.Sprintf("control %s has no driver_feature", ctl.ID))
		}
		if ctl.Name == "" {
			ctl.Name = ctl.ID
		}
		key := normalizeID(ctl.ID)
		if _, dup := c.controls[key]; dup {
			return nil, errors.ErrConfiguration(fmt.Sprintf("duplicate control id %s", ctl.ID))
		}
		c.controls[key] = ctl
		c.order = append(c.order, key)
	}
	sort.Strings(c.order)
	return c, nil
}

// LoadStaticCatalog reads a YAML catalog. An empty path yields DefaultControls.
// LoadStaticCatalog 读取 YAML 格式的控制措施目录，路径为空时使用 DefaultControls。
func LoadStaticCatalog(path string) (*StaticCatalog, error) {
	if path == "" {
		return NewStaticCatalog(DefaultControls)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapError(err, constants.ErrCodeConfiguration, "failed to read control catalog")
	}
	var file catalogFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, errors.WrapError(err, constants.ErrCodeConfiguration, "failed to unmarshal control catalog")
	}
	return NewStaticCatalog(file.Controls)
}

// Get implements service.ControlCatalog.
func (c *StaticCatalog) Get(_ context.Context, id string) (models.Control, error) {
	ctl, ok := c.controls[normalizeID(id)]
	if !ok {
		return models.Control{}, errors.ErrNotFound("control", id)
	}
	return ctl, nil
}

// List implements service.ControlCatalog, ordered by id.
func (c *StaticCatalog) List(_ context.Context) ([]models.Control, error) {
	out := make([]models.Control, 0, len(c.order))
	for _, key := range c.order {
		out = append(out, c.controls[key])
	}
	return out, nil
}

// MarshalYAML renders the catalog in its file layout.
func (c *StaticCatalog) MarshalYAML() (interface{}, error) {
	controls, _ := c.List(context.Background())
	return catalogFile{Controls: controls}, nil
}

func normalizeID(id string) string {
	return strings.ToUpper(strings.TrimSpace(id))
}

var _ service.ControlCatalog = (*StaticCatalog)(nil)

//Personal.AI order the ending
