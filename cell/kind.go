package cell

import "fmt"

// Command is the one-byte cell command on the wire.
type Command uint8

// Command constants
const (
	CmdPadding          Command = 0
	CmdCreate           Command = 1
	CmdCreated          Command = 2
	CmdRelay            Command = 3
	CmdDestroy          Command = 4
	CmdCreateFast       Command = 5
	CmdCreatedFast      Command = 6
	CmdVersions         Command = 7
	CmdNetInfo          Command = 8
	CmdRelayEarly       Command = 9
	CmdCreate2          Command = 10
	CmdCreated2         Command = 11
	CmdPaddingNegotiate Command = 12
	CmdVPadding         Command = 128
	CmdCerts            Command = 129
	CmdAuthChallenge    Command = 130
	CmdAuthenticate     Command = 131
	CmdAuthorize        Command = 132
)

// Kind describes one cell command: its symbolic name, wire value and
// framing discipline.
type Kind struct {
	Name      string
	Command   Command
	FixedSize bool
}

// catalog lists every recognized kind in wire order. Kinds without a
// decoder in the decoders table are recognized but refuse to unpack.
var catalog = [...]Kind{
	{"PADDING", CmdPadding, true},
	{"CREATE", CmdCreate, true},
	{"CREATED", CmdCreated, true},
	{"RELAY", CmdRelay, true},
	{"DESTROY", CmdDestroy, true},
	{"CREATE_FAST", CmdCreateFast, true},
	{"CREATED_FAST", CmdCreatedFast, true},
	{"VERSIONS", CmdVersions, false},
	{"NETINFO", CmdNetInfo, true},
	{"RELAY_EARLY", CmdRelayEarly, true},
	{"CREATE2", CmdCreate2, true},
	{"CREATED2", CmdCreated2, true},
	{"PADDING_NEGOTIATE", CmdPaddingNegotiate, true},
	{"VPADDING", CmdVPadding, false},
	{"CERTS", CmdCerts, false},
	{"AUTH_CHALLENGE", CmdAuthChallenge, false},
	{"AUTHENTICATE", CmdAuthenticate, false},
	{"AUTHORIZE", CmdAuthorize, false},
}

var (
	kindsByName  = make(map[string]Kind, len(catalog))
	kindsByValue = make(map[Command]Kind, len(catalog))
)

func init() {
	for _, k := range catalog {
		if _, dup := kindsByName[k.Name]; dup {
			panic("cell: duplicate kind name " + k.Name)
		}
		if _, dup := kindsByValue[k.Command]; dup {
			panic(fmt.Sprintf("cell: duplicate kind value %d", k.Command))
		}
		kindsByName[k.Name] = k
		kindsByValue[k.Command] = k
	}
}

// Kinds returns the catalog of recognized kinds in wire order.
func Kinds() []Kind {
	out := make([]Kind, len(catalog))
	copy(out, catalog[:])
	return out
}

// KindByName looks up a kind by its symbolic name, such as "VERSIONS".
func KindByName(name string) (Kind, error) {
	k, ok := kindsByName[name]
	if !ok {
		return Kind{}, fmt.Errorf("%q isn't a valid cell type: %w", name, ErrUnknownKind)
	}
	return k, nil
}

// KindByValue looks up a kind by its wire value. Values outside 0-255 are
// rejected the same way as unregistered ones.
func KindByValue(value int) (Kind, error) {
	if value < 0 || value > 255 {
		return Kind{}, fmt.Errorf("%d isn't a valid cell value, must be 0-255: %w", value, ErrUnknownKind)
	}
	k, ok := kindsByValue[Command(value)]
	if !ok {
		return Kind{}, fmt.Errorf("%d isn't a valid cell value: %w", value, ErrUnknownKind)
	}
	return k, nil
}

func (c Command) String() string {
	if k, ok := kindsByValue[c]; ok {
		return k.Name
	}
	return fmt.Sprintf("Command(%d)", uint8(c))
}

func (k Kind) String() string {
	return k.Name
}
