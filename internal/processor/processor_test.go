package processor

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/soundgraph/effectshost/internal/audioserver"
	"github.com/soundgraph/effectshost/internal/chain"
	"github.com/soundgraph/effectshost/internal/config"
	"github.com/soundgraph/effectshost/internal/demoplugins"
	"github.com/soundgraph/effectshost/internal/eventbus"
	"github.com/soundgraph/effectshost/internal/herr"
	"github.com/soundgraph/effectshost/internal/logging"
	"github.com/soundgraph/effectshost/internal/plugin"
)

// newTestProcessor builds a Processor with its client/registry/chains
// wired directly, bypassing Start's portaudio.Initialize/OpenStream —
// those need real audio hardware, so component tests drive onProcess
// and the auto-connect pass against an in-memory client the same way
// audioserver's own tests call client.process directly instead of
// through a live stream.
func newTestProcessor(t *testing.T) (*Processor, *eventbus.Bus) {
	t.Helper()
	bus := eventbus.New()
	p := New(44100, 4, bus, logging.New())
	p.client = audioserver.New(44100, 4)

	reg := plugin.NewRegistry()
	require.NoError(t, reg.RegisterLibrary(demoplugins.Library()))
	p.registry = reg

	return p, bus
}

func TestOnProcessDrivesChainsInInsertionOrderAndEmitsProcessed(t *testing.T) {
	p, bus := newTestProcessor(t)

	require.NoError(t, p.client.AddInput("c1_in_1"))
	require.NoError(t, p.client.AddOutput("c1_out_1"))

	c, err := chain.Build(chain.ChainSpec{
		Name:    "c1",
		Inputs:  []string{"e.Input"},
		Outputs: []string{"e.Output"},
		Effects: []chain.EffectSpec{{Name: "e", Type: "Identity"}},
	}, p.registry, 44100, 4)
	require.NoError(t, err)
	require.NoError(t, c.Activate())
	p.chains = []*chain.Chain{c}

	in := p.client.Buffer("c1_in_1")
	copy(in, []float32{1, 2, 3, 4})

	p.onProcess(4)

	require.Equal(t, []float32{1, 2, 3, 4}, p.client.Buffer("c1_out_1"))

	ev, ok := bus.Recv()
	require.True(t, ok)
	require.Equal(t, eventbus.AudioProcessed, ev.Kind)
}

func TestBuildChainCreatesNamedBoundaryPorts(t *testing.T) {
	p, _ := newTestProcessor(t)

	err := p.buildChain("c1", chainDeclWithOneIO())
	require.NoError(t, err)

	require.Equal(t, []string{"c1_in_1", "c1_out_1"}, p.client.KnownPortNames())
	require.Len(t, p.chains, 1)
}

func TestRunAutoConnectIgnoresAlreadyConnectedAndLogsOtherFailures(t *testing.T) {
	p, _ := newTestProcessor(t)
	require.NoError(t, p.client.AddInput("src"))
	require.NoError(t, p.client.AddOutput("dst"))

	p.autoConnect["src"] = []string{"dst", "dst", "no-such-port"}

	require.NotPanics(t, func() { p.runAutoConnect() })
	require.Equal(t, []string{"src", "dst"}, p.client.KnownPortNames())
}

func TestOnSampleRateChangeEmitsFatalEvent(t *testing.T) {
	p, bus := newTestProcessor(t)
	p.sampleRate = 44100

	p.onSampleRateChange(48000)

	ev, ok := bus.Recv()
	require.True(t, ok)
	require.Equal(t, eventbus.Fatal, ev.Kind)
	require.True(t, herr.Is(ev.Err, herr.Unrecoverable))
}

func TestOnBufferSizeChangeEmitsFatalEvent(t *testing.T) {
	p, bus := newTestProcessor(t)
	p.maxBufferSize = 256

	p.onBufferSizeChange(512)

	ev, ok := bus.Recv()
	require.True(t, ok)
	require.Equal(t, eventbus.Fatal, ev.Kind)
	require.True(t, herr.Is(ev.Err, herr.Unrecoverable))
}

func TestOnPortRegisterEmitsClientChange(t *testing.T) {
	p, bus := newTestProcessor(t)
	p.onPortRegister("new-port")

	ev, ok := bus.Recv()
	require.True(t, ok)
	require.Equal(t, eventbus.AudioClientChange, ev.Kind)
}

func chainDeclWithOneIO() config.ChainDecl {
	return config.ChainDecl{
		Inputs:  []string{"e.Input"},
		Outputs: []string{"e.Output"},
		Effects: []config.EffectDecl{{Name: "e", Type: "Identity"}},
	}
}
