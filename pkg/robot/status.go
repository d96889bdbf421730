package robot

import (
	"github.com/robotalks/diffbot/pkg/drive"
	"github.com/robotalks/diffbot/pkg/l0/comm"
	"github.com/robotalks/diffbot/pkg/safety"
	"github.com/robotalks/diffbot/pkg/sensors"
)

// Status is a snapshot of the control core taken on the loop.
type Status struct {
	Tick         uint64
	State        safety.State
	Speed        int8
	Yaw          int8
	Motors       drive.MotorCommand
	Distance     float64
	BatteryVolts float64
	Accel        sensors.Vector3
	AccelRate    int
	LED          bool
	UART         comm.UARTStats
}

// StatusReporter receives status snapshots. ReportStatus is called on
// the loop and must not block.
type StatusReporter interface {
	ReportStatus(Status)
}

// StatusReporterFunc is the func form of StatusReporter.
type StatusReporterFunc func(Status)

// ReportStatus implements StatusReporter.
func (f StatusReporterFunc) ReportStatus(s Status) {
	f(s)
}

// Fields flattens the snapshot for generic encoders.
func (s Status) Fields() map[string]interface{} {
	return map[string]interface{}{
		"tick":     float64(s.Tick),
		"state":    s.State.String(),
		"speed":    float64(s.Speed),
		"yaw":      float64(s.Yaw),
		"left":     float64(s.Motors.Left),
		"right":    float64(s.Motors.Right),
		"distance": s.Distance,
		"battery":  s.BatteryVolts,
		"accel": map[string]interface{}{
			"x": float64(s.Accel.X),
			"y": float64(s.Accel.Y),
			"z": float64(s.Accel.Z),
		},
		"accelRate": float64(s.AccelRate),
		"led":       s.LED,
		"uart": map[string]interface{}{
			"rxBytes":       float64(s.UART.RxBytes),
			"rxErrors":      float64(s.UART.RxErrors),
			"framesDropped": float64(s.UART.FramesDropped),
			"txBytes":       float64(s.UART.TxBytes),
			"txDropped":     float64(s.UART.TxDropped),
		},
	}
}
