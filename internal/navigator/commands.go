package navigator

// CommandKind enumerates the actions a key can trigger
type CommandKind int

// Commands
const (
	CommandNone CommandKind = iota
	CommandMove
	CommandActivate
	CommandBack
	CommandHome
	CommandIncrementQuantity
	CommandDecrementQuantity
	CommandSetQuantity
	CommandPauseCart
)

var commandNames = map[CommandKind]string{
	CommandNone:              "none",
	CommandMove:              "move",
	CommandActivate:          "activate",
	CommandBack:              "back",
	CommandHome:              "home",
	CommandIncrementQuantity: "increment_quantity",
	CommandDecrementQuantity: "decrement_quantity",
	CommandSetQuantity:       "set_quantity",
	CommandPauseCart:         "pause_cart",
}

func (k CommandKind) String() string {
	if s, ok := commandNames[k]; ok {
		return s
	}
	return "unknown"
}

// MarshalText encodes the command kind by name
func (k CommandKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Command is a decoded input action
type Command struct {
	Kind     CommandKind `json:"kind"`
	Delta    int         `json:"delta,omitempty"`
	Quantity int         `json:"quantity,omitempty"`
}

// Keymap translates key names into commands. Columns is the width of the
// card grid, used for vertical movement.
type Keymap struct {
	Columns int
}

// DefaultKeymap uses a four column grid
func DefaultKeymap() Keymap {
	return Keymap{Columns: 4}
}

// Dispatch maps a key name to a command; unknown keys map to CommandNone
func (k Keymap) Dispatch(key string) Command {
	cols := k.Columns
	if cols < 1 {
		cols = 1
	}

	switch key {
	case "ArrowLeft":
		return Command{Kind: CommandMove, Delta: -1}
	case "ArrowRight":
		return Command{Kind: CommandMove, Delta: 1}
	case "ArrowUp":
		return Command{Kind: CommandMove, Delta: -cols}
	case "ArrowDown":
		return Command{Kind: CommandMove, Delta: cols}
	case "Enter":
		return Command{Kind: CommandActivate}
	case "Escape", "Backspace":
		return Command{Kind: CommandBack}
	case "Home":
		return Command{Kind: CommandHome}
	case "+", "=":
		return Command{Kind: CommandIncrementQuantity}
	case "-":
		return Command{Kind: CommandDecrementQuantity}
	case "F8":
		return Command{Kind: CommandPauseCart}
	}

	if len(key) == 1 && key[0] >= '1' && key[0] <= '9' {
		return Command{Kind: CommandSetQuantity, Quantity: int(key[0] - '0')}
	}
	return Command{Kind: CommandNone}
}

// Apply executes a navigation command. It reports handled=false for
// commands that belong to the cart, which the caller must execute.
func (n *Navigator) Apply(cmd Command) (act Activation, handled bool, err error) {
	switch cmd.Kind {
	case CommandNone:
		return Activation{}, true, nil
	case CommandMove:
		n.MoveSelection(cmd.Delta)
	case CommandActivate:
		act, err = n.ActivateSelection()
		return act, true, err
	case CommandBack:
		n.GoBack()
	case CommandHome:
		n.GoHome()
	case CommandIncrementQuantity:
		n.IncrementPending()
	case CommandDecrementQuantity:
		n.DecrementPending()
	case CommandSetQuantity:
		entry, ok := n.selectedItem()
		if !ok {
			return Activation{}, true, nil
		}
		return Activation{}, true, n.SetPendingQuantity(entry.ID, cmd.Quantity)
	default:
		return Activation{}, false, nil
	}
	return Activation{}, true, nil
}
