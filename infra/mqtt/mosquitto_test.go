//go:build !no_containers

package mqtt

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/kilianp07/liftsim/core/model"
)

func startMosquitto(t *testing.T) string {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping broker container in short mode")
	}
	conf := "listener 1883\nallow_anonymous true\npersistence false\n"
	path := filepath.Join(t.TempDir(), "mosquitto.conf")
	if err := os.WriteFile(path, []byte(conf), 0644); err != nil {
		t.Fatalf("write conf: %v", err)
	}
	ctx := context.Background()
	req := tc.ContainerRequest{
		Image:        "eclipse-mosquitto:2.0",
		ExposedPorts: []string{"1883/tcp"},
		WaitingFor:   wait.ForListeningPort("1883/tcp"),
		Files: []tc.ContainerFile{{
			HostFilePath:      path,
			ContainerFilePath: "/mosquitto/config/mosquitto.conf",
			FileMode:          0644,
		}},
	}
	cont, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{ContainerRequest: req, Started: true})
	if err != nil {
		t.Skipf("docker unavailable: %v", err)
	}
	t.Cleanup(func() { _ = cont.Terminate(context.Background()) })
	host, err := cont.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := cont.MappedPort(ctx, "1883")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	broker := fmt.Sprintf("tcp://%s:%s", host, port.Port())
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		probe := paho.NewClient(paho.NewClientOptions().AddBroker(broker).SetClientID("probe"))
		if tok := probe.Connect(); tok.Wait() && tok.Error() == nil {
			probe.Disconnect(100)
			return broker
		}
		time.Sleep(100 * time.Millisecond)
	}
	t.Fatalf("broker %s not ready", broker)
	return ""
}

func TestBridgeWithMosquitto(t *testing.T) {
	broker := startMosquitto(t)
	newMQTTClient = func(opts *paho.ClientOptions) pahoClient { return paho.NewClient(opts) }

	server, err := NewPahoClient(Config{Broker: broker, ClientID: "bridge", QoS: map[string]byte{"button": 1}})
	if err != nil {
		t.Fatalf("bridge client: %v", err)
	}
	defer server.Disconnect()
	presses := &pressRecorder{}
	b := NewBridge(server, "liftsim", presses, staticStatus{}, nil)
	if _, err := b.Start(context.Background(), nil); err != nil {
		t.Fatalf("start: %v", err)
	}

	remote, err := NewPahoClient(Config{Broker: broker, ClientID: "panel", QoS: map[string]byte{"button": 1}})
	if err != nil {
		t.Fatalf("remote client: %v", err)
	}
	defer remote.Disconnect()
	if err := NewButtonPublisher(remote, "liftsim").Press(model.CallRequest(model.DirUp, 2)); err != nil {
		t.Fatalf("press: %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		presses.mu.Lock()
		n := len(presses.reqs)
		presses.mu.Unlock()
		if n > 0 {
			break
		}
		time.Sleep(50 * time.Millisecond)
	}
	presses.mu.Lock()
	defer presses.mu.Unlock()
	if len(presses.reqs) != 1 || !presses.reqs[0].Same(model.CallRequest(model.DirUp, 2)) {
		t.Fatalf("expected up call at floor 2, got %v", presses.reqs)
	}
}
