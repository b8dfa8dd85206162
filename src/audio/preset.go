package audio

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/ioutil"
	"path/filepath"
	"sync"
)

var errNoPresetDir = errors.New("no preset directory")

type presetMetaJSON struct {
	Name string `json:"name"`
}

type presetMetaListJSON struct {
	Items []presetMetaJSON `json:"items"`
}

type presetMeta struct {
	name string
}

type presetManager struct {
	sync.Mutex
	dir  string
	list []*presetMeta
}

func newPresetManager(dir string) *presetManager {
	return &presetManager{
		dir: dir,
	}
}

func (pm *presetManager) getList() ([]*presetMeta, error) {
	pm.Lock()
	defer pm.Unlock()
	if pm.list == nil {
		if err := pm.loadList(); err != nil {
			return nil, err
		}
	}
	return pm.list, nil
}

func (pm *presetManager) names() ([]string, error) {
	list, err := pm.getList()
	if err != nil {
		return nil, err
	}
	names := make([]string, len(list))
	for i, meta := range list {
		names[i] = meta.name
	}
	return names, nil
}

func (pm *presetManager) loadList() error {
	if pm.dir == "" {
		return errNoPresetDir
	}
	path := filepath.Join(pm.dir, "_list.json")
	bytes, err := ioutil.ReadFile(path)
	if err != nil {
		return err
	}
	metaListJSON := &presetMetaListJSON{}
	err = json.Unmarshal(bytes, metaListJSON)
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	pm.list = make([]*presetMeta, len(metaListJSON.Items))
	for i, item := range metaListJSON.Items {
		pm.list[i] = &presetMeta{name: item.Name}
	}
	return nil
}

func (pm *presetManager) applyToParams(name string, target *params) error {
	if pm.dir == "" {
		return errNoPresetDir
	}
	if filepath.Base(name) != name {
		return ErrInvalidCommand
	}
	bytes, err := ioutil.ReadFile(filepath.Join(pm.dir, name+".json"))
	if err != nil {
		return err
	}
	target.applyJSON(bytes)
	return nil
}
