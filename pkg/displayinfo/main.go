package displayinfo

import (
	"encoding/json"
	"fmt"

	"github.com/hoppxi/ddclight/internal/brightness"
)

type DisplayInfo struct {
	Model   string `json:"model,omitempty"`
	Current uint32 `json:"current"`
	Max     uint32 `json:"max"`
	Level   uint32 `json:"level"`
}

type modeler interface {
	Model() string
}

func GetDisplayInfo(b brightness.Backend) *DisplayInfo {
	info := &DisplayInfo{
		Current: b.Current(),
		Max:     b.Max(),
		Level:   brightness.PercentFromRaw(b.Current(), b.Max()),
	}
	if m, ok := b.(modeler); ok {
		info.Model = m.Model()
	}
	return info
}

func GetDisplayInfoJSON(b brightness.Backend) ([]byte, error) {
	return GetDisplayInfo(b).JSON()
}

func (i *DisplayInfo) JSON() ([]byte, error) {
	return json.MarshalIndent(i, "", "  ")
}

func (i *DisplayInfo) String() string {
	return fmt.Sprintf("%d/%d (%d%%)", i.Current, i.Max, i.Level)
}
