package audio

import (
	"encoding/json"
	"io/ioutil"
	"log"
)

// Config configures the live engine. Zero fields take defaults.
type Config struct {
	SampleRate int `json:"sampleRate"`
	BlockSize  int `json:"blockSize"`
	StreamMsec int `json:"streamMsec"`
	// DeviceRate is the output device rate. 0 uses SampleRate.
	DeviceRate        int `json:"deviceRate"`
	BufferSizeInBytes int `json:"bufferSizeInBytes"`
	// Wavetables is a bank file written by gentables. Its tables are registered on start.
	Wavetables string `json:"wavetables"`
	// PresetDir holds _list.json and one <name>.json per preset.
	PresetDir string `json:"presetDir"`
	// Sound is the initial sound, in the same format as a preset file.
	Sound json.RawMessage `json:"sound,omitempty"`
}

// LoadConfig reads a JSON config file.
func LoadConfig(path string) (*Config, error) {
	bytes, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c := &Config{}
	if err := json.Unmarshal(bytes, c); err != nil {
		return nil, err
	}
	return c, nil
}

func toRawMessage(v interface{}) json.RawMessage {
	bytes, err := json.Marshal(v)
	if err != nil {
		log.Printf("failed to marshal %T: %v\n", v, err)
		return json.RawMessage("null")
	}
	return json.RawMessage(bytes)
}
