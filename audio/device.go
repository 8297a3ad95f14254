package audio

import (
	"bytes"
	"fmt"
	"text/template"

	"github.com/golang/glog"
	"github.com/gordonklaus/portaudio"
)

var deviceTmpl = template.Must(template.New("").Parse(
	`{{. | len}} host APIs: {{range .}}
	Name:                   {{.Name}}
	{{if .DefaultInputDevice}}Default input device:   {{.DefaultInputDevice.Name}}{{end}}
	{{if .DefaultOutputDevice}}Default output device:  {{.DefaultOutputDevice.Name}}{{end}}
	Devices: {{range .Devices}}
		Name:                      {{.Name}}
		MaxInputChannels:          {{.MaxInputChannels}}
		MaxOutputChannels:         {{.MaxOutputChannels}}
		DefaultLowInputLatency:    {{.DefaultLowInputLatency}}
		DefaultHighOutputLatency:  {{.DefaultHighOutputLatency}}
		DefaultSampleRate:         {{.DefaultSampleRate}}
	{{end}}
{{end}}`,
))

// DescribeDevices renders the host APIs and their devices using deviceTmpl.
// portaudio must already be initialized.
func DescribeDevices() (string, error) {
	hs, err := portaudio.HostApis()
	if err != nil {
		return "", fmt.Errorf("listing host APIs: %w", err)
	}
	buf := new(bytes.Buffer)
	if err := deviceTmpl.Execute(buf, hs); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// PrintDevices initializes portaudio and logs every host device.
func PrintDevices() error {
	if err := portaudio.Initialize(); err != nil {
		return err
	}
	defer portaudio.Terminate()

	s, err := DescribeDevices()
	if err != nil {
		return err
	}
	glog.Info(s)
	fmt.Println(s)
	return nil
}
