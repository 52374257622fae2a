package capture

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"airkvm/internal/input"
)

// Step is one scripted event, emitted after Delay.
type Step struct {
	Event input.RawEvent
	Delay time.Duration
}

// scriptEntry is the YAML form of a step:
//
//   - event: enter
//     x: 100
//     y: 50
//   - event: tap
//     key: c
//     delay: 20ms
type scriptEntry struct {
	Event   string        `yaml:"event"`
	X       float64       `yaml:"x"`
	Y       float64       `yaml:"y"`
	Code    uint32        `yaml:"code"`
	Key     string        `yaml:"key"`
	Button  string        `yaml:"button"`
	Pressed *bool         `yaml:"pressed"`
	Axis    string        `yaml:"axis"`
	Value   float64       `yaml:"value"`
	Delay   time.Duration `yaml:"delay"`
}

var buttonCodes = map[string]uint32{
	"left":    0x110,
	"right":   0x111,
	"middle":  0x112,
	"side":    0x113,
	"back":    0x113,
	"extra":   0x114,
	"forward": 0x114,
}

// ParseScript decodes a YAML list of events. A "tap" entry expands to a
// key press and release, a "click" entry to a button press and release.
func ParseScript(data []byte) ([]Step, error) {
	var entries []scriptEntry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse script: %w", err)
	}

	var steps []Step
	for i, e := range entries {
		events, err := e.events()
		if err != nil {
			return nil, fmt.Errorf("script entry %d: %w", i+1, err)
		}
		for j, ev := range events {
			step := Step{Event: ev}
			if j == 0 {
				step.Delay = e.Delay
			}
			steps = append(steps, step)
		}
	}
	return steps, nil
}

func (e scriptEntry) events() ([]input.RawEvent, error) {
	pressed := e.Pressed == nil || *e.Pressed

	switch strings.ToLower(e.Event) {
	case "enter":
		return []input.RawEvent{input.PointerEnter(e.X, e.Y)}, nil
	case "leave":
		return []input.RawEvent{input.PointerLeave()}, nil
	case "motion", "move":
		return []input.RawEvent{input.PointerMotion(e.X, e.Y)}, nil
	case "button":
		code, err := e.buttonCode()
		if err != nil {
			return nil, err
		}
		return []input.RawEvent{input.PointerButton(code, pressed)}, nil
	case "click":
		code, err := e.buttonCode()
		if err != nil {
			return nil, err
		}
		return []input.RawEvent{input.PointerButton(code, true), input.PointerButton(code, false)}, nil
	case "axis", "scroll":
		switch strings.ToLower(e.Axis) {
		case "", "vertical":
			return []input.RawEvent{input.PointerAxis(input.AxisVertical, e.Value)}, nil
		case "horizontal":
			return []input.RawEvent{input.PointerAxis(input.AxisHorizontal, e.Value)}, nil
		default:
			return nil, fmt.Errorf("unknown axis %q", e.Axis)
		}
	case "key":
		code, err := e.keyCode()
		if err != nil {
			return nil, err
		}
		return []input.RawEvent{input.KeyEvent(code, pressed)}, nil
	case "tap":
		code, err := e.keyCode()
		if err != nil {
			return nil, err
		}
		return []input.RawEvent{input.KeyEvent(code, true), input.KeyEvent(code, false)}, nil
	default:
		return nil, fmt.Errorf("unknown event %q", e.Event)
	}
}

func (e scriptEntry) keyCode() (uint32, error) {
	if e.Key == "" {
		if e.Code == 0 {
			return 0, fmt.Errorf("%s needs a key or code", e.Event)
		}
		return e.Code, nil
	}
	code, ok := input.KeyCode(e.Key)
	if !ok {
		return 0, fmt.Errorf("unknown key %q", e.Key)
	}
	return code, nil
}

func (e scriptEntry) buttonCode() (uint32, error) {
	if e.Button == "" {
		if e.Code == 0 {
			return 0, fmt.Errorf("%s needs a button or code", e.Event)
		}
		return e.Code, nil
	}
	code, ok := buttonCodes[strings.ToLower(e.Button)]
	if !ok {
		return 0, fmt.Errorf("unknown button %q", e.Button)
	}
	return code, nil
}

// Script replays a fixed list of steps.
type Script struct {
	steps []Step
}

func NewScript(steps []Step) *Script {
	return &Script{steps: steps}
}

// LoadScript reads and parses a script file.
func LoadScript(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read script: %w", err)
	}
	steps, err := ParseScript(data)
	if err != nil {
		return nil, err
	}
	return NewScript(steps), nil
}

func (s *Script) Next(ctx context.Context) (input.RawEvent, error) {
	if len(s.steps) == 0 {
		return input.RawEvent{}, io.EOF
	}
	step := s.steps[0]
	if step.Delay > 0 {
		timer := time.NewTimer(step.Delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return input.RawEvent{}, ctx.Err()
		}
	} else if err := ctx.Err(); err != nil {
		return input.RawEvent{}, err
	}
	s.steps = s.steps[1:]
	return step.Event, nil
}
