package mqtt

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kilianp07/liftsim/core/model"
)

// DefaultPrefix is the root of every topic when none is configured.
const DefaultPrefix = "liftsim"

// Topics builds and parses topic names below a common prefix:
//
//	<prefix>/call/<up|down>/<floor>      hall button pressed
//	<prefix>/car/<id>/panel/<floor>      car panel button pressed
//	<prefix>/car/<id>/state              retained car status
//	<prefix>/requests                    retained pending requests
//	<prefix>/status                      online or offline (last will)
type Topics struct {
	Prefix string
}

// NewTopics returns the layout rooted at prefix, or DefaultPrefix when empty.
func NewTopics(prefix string) Topics {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return Topics{Prefix: prefix}
}

func (t Topics) Call(dir model.Direction, floor model.Floor) string {
	return fmt.Sprintf("%s/call/%s/%d", t.Prefix, dir, floor)
}

func (t Topics) Panel(carID string, floor model.Floor) string {
	return fmt.Sprintf("%s/car/%s/panel/%d", t.Prefix, carID, floor)
}

func (t Topics) State(carID string) string {
	return fmt.Sprintf("%s/car/%s/state", t.Prefix, carID)
}

func (t Topics) Requests() string { return t.Prefix + "/requests" }

func (t Topics) Status() string { return t.Prefix + "/status" }

// CallFilter matches every hall button topic.
func (t Topics) CallFilter() string { return t.Prefix + "/call/+/+" }

// PanelFilter matches every car panel topic.
func (t Topics) PanelFilter() string { return t.Prefix + "/car/+/panel/+" }

// ParseButton converts a button topic into the request it asks for.
func (t Topics) ParseButton(topic string) (model.Request, error) {
	rest, ok := strings.CutPrefix(topic, t.Prefix+"/")
	if !ok {
		return model.Request{}, fmt.Errorf("%w: %s", ErrBadTopic, topic)
	}
	parts := strings.Split(rest, "/")
	switch {
	case len(parts) == 3 && parts[0] == "call":
		dir, err := model.ParseDirection(parts[1])
		if err != nil || dir == model.DirNone {
			return model.Request{}, fmt.Errorf("%w: %s", ErrBadTopic, topic)
		}
		floor, err := parseFloor(parts[2])
		if err != nil {
			return model.Request{}, fmt.Errorf("%w: %s", ErrBadTopic, topic)
		}
		return model.CallRequest(dir, floor), nil
	case len(parts) == 4 && parts[0] == "car" && parts[2] == "panel" && parts[1] != "":
		floor, err := parseFloor(parts[3])
		if err != nil {
			return model.Request{}, fmt.Errorf("%w: %s", ErrBadTopic, topic)
		}
		return model.PanelRequest(parts[1], floor), nil
	}
	return model.Request{}, fmt.Errorf("%w: %s", ErrBadTopic, topic)
}

func parseFloor(s string) (model.Floor, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	return model.Floor(n), nil
}
