// Package layer defines the decoded unit of a print plan and the rules that
// turn a raw record into one.
package layer

import (
	"encoding/json"
	"fmt"
)

// StatusSuccess is the LayerError value that signals no reported fault.
const StatusSuccess = "SUCCESS"

// ColumnCount is the number of positional columns a plan record must carry.
const ColumnCount = 18

// Layer is one decoded row of the plan. Field order matches the column order
// of the source file, and the JSON tags are the keys written to the layer
// metadata file.
type Layer struct {
	LayerError           string  `json:"layerError"`
	LayerNumber          int     `json:"layerNumber"`
	LayerHeight          float64 `json:"layerHeight"`
	MaterialType         string  `json:"materialType"`
	ExtrusionTemperature int     `json:"extrusionTemperature"`
	PrintSpeed           int     `json:"printSpeed"`
	LayerAdhesionQuality string  `json:"layerAdhesionQuality"`
	InfillDensity        int     `json:"infillDensity"`
	InfillPattern        string  `json:"infillPattern"`
	ShellThickness       int     `json:"shellThickness"`
	OverhangAngle        int     `json:"overhangAngle"`
	CoolingFanSpeed      int     `json:"coolingFanSpeed"`
	RetractionSettings   string  `json:"retractionSettings"`
	ZOffsetAdjustment    float64 `json:"zOffsetAdjustment"`
	PrintBedTemperature  int     `json:"printBedTemperature"`
	LayerTime            string  `json:"layerTime"`
	FileName             string  `json:"fileName"`
	ImageURL             string  `json:"imageUrl"`
}

// MarshalDocument returns the metadata file content for l: a JSON object in
// column order followed by a newline. The output is deterministic, so writing
// the same layer twice yields identical bytes.
func (l Layer) MarshalDocument() ([]byte, error) {
	b, err := json.Marshal(l)
	if err != nil {
		return nil, fmt.Errorf("encode layer %d: %w", l.LayerNumber, err)
	}
	return append(b, '\n'), nil
}

// DocumentName returns the metadata file name for l, e.g. layer_00042.json.
func (l Layer) DocumentName() string {
	return fmt.Sprintf("layer_%05d.json", l.LayerNumber)
}
