package export

import (
	"encoding/json"
	"io"
	"os"

	"github.com/san-kum/brusim/internal/sim"
)

type TrajectoryData struct {
	Model    string             `json:"model"`
	Boundary string             `json:"boundary"`
	Stepper  string             `json:"stepper"`
	Forcing  string             `json:"forcing"`
	N        int                `json:"n"`
	Dt       float64            `json:"dt"`
	Duration float64            `json:"duration"`
	Samples  int                `json:"samples"`
	Times    []float64          `json:"times"`
	States   [][]float64        `json:"states"`
	Metrics  map[string]float64 `json:"metrics"`
}

func NewTrajectoryData(model, boundary, stepper, forcing string, n int, dt, duration float64, traj *sim.Trajectory) *TrajectoryData {
	data := &TrajectoryData{
		Model:    model,
		Boundary: boundary,
		Stepper:  stepper,
		Forcing:  forcing,
		N:        n,
		Dt:       dt,
		Duration: duration,
		Samples:  len(traj.Times),
		Times:    traj.Times,
		States:   make([][]float64, len(traj.States)),
		Metrics:  traj.Metrics,
	}
	for i, s := range traj.States {
		data.States[i] = s
	}
	return data
}

func WriteJSON(w io.Writer, data *TrajectoryData) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

func WriteJSONFile(path string, data *TrajectoryData) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return WriteJSON(file, data)
}
