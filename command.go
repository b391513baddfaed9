package mopage

import "fmt"

// Command is a single edit intent against a document. Commands are the
// only way the editor mutates state; each one maps to exactly one store
// mutation, which keeps the confirmation protocol and the re-render
// decision in one place.
type Command interface {
	isCommand()
}

// AddBlockCmd appends a fresh block of the given variant.
type AddBlockCmd struct {
	Type BlockType `json:"type"`
}

// DeleteBlockCmd removes a block. The first dispatch without Confirmed set
// does not mutate anything; it comes back asking for confirmation.
type DeleteBlockCmd struct {
	ID        string `json:"id"`
	Confirmed bool   `json:"confirmed"`
}

// MoveBlockCmd swaps a block with its neighbor.
type MoveBlockCmd struct {
	ID        string    `json:"id"`
	Direction Direction `json:"direction"`
}

// SelectBlockCmd changes the active selection. Empty ID deselects.
type SelectBlockCmd struct {
	ID string `json:"id"`
}

// UpdateFieldCmd writes one property through its accessor.
type UpdateFieldCmd struct {
	ID    string `json:"id"`
	Path  string `json:"path"`
	Value any    `json:"value"`
}

// PushArrayItemCmd appends an entry to an array-shaped field.
type PushArrayItemCmd struct {
	ID    string `json:"id"`
	Path  string `json:"path"`
	Value any    `json:"value"`
}

// RemoveArrayItemCmd deletes an entry from an array-shaped field. Like
// block deletion it is destructive, so it uses the same two-step protocol.
type RemoveArrayItemCmd struct {
	ID        string `json:"id"`
	Path      string `json:"path"`
	Index     int    `json:"index"`
	Confirmed bool   `json:"confirmed"`
}

// SetTitleCmd renames the page.
type SetTitleCmd struct {
	Title string `json:"title"`
}

// SetPageStyleCmd updates page-level presentation.
type SetPageStyleCmd struct {
	BackgroundColor string `json:"backgroundColor"`
}

func (AddBlockCmd) isCommand()        {}
func (DeleteBlockCmd) isCommand()     {}
func (MoveBlockCmd) isCommand()       {}
func (SelectBlockCmd) isCommand()     {}
func (UpdateFieldCmd) isCommand()     {}
func (PushArrayItemCmd) isCommand()   {}
func (RemoveArrayItemCmd) isCommand() {}
func (SetTitleCmd) isCommand()        {}
func (SetPageStyleCmd) isCommand()    {}

// Result reports what a dispatched command did, so the session layer knows
// whether to re-render, which panel to refresh, and whether the client
// must come back with a confirmation.
type Result struct {
	// Changed reports whether the document was mutated.
	Changed bool
	// NeedsConfirmation asks the client to redispatch with Confirmed set.
	NeedsConfirmation bool
	// Prompt is the confirmation question to show the user.
	Prompt string
	// Added is the block created by an AddBlockCmd, for scroll-into-view.
	Added *Block
	// SelectionChanged reports that the property panel must re-resolve.
	SelectionChanged bool
}

// Apply executes one command against the document. Unknown targets and
// boundary moves are accepted no-ops: the canvas may be stale relative to
// a concurrent edit in the same session, and a stale command must not
// crash the session.
func Apply(d *Document, cmd Command) Result {
	switch c := cmd.(type) {
	case AddBlockCmd:
		b := d.AddBlock(c.Type)
		return Result{Changed: true, Added: b, SelectionChanged: true}

	case DeleteBlockCmd:
		if d.Block(c.ID) == nil {
			return Result{}
		}
		if !c.Confirmed {
			return Result{
				NeedsConfirmation: true,
				Prompt:            "Delete this block?",
			}
		}
		wasSelected := d.SelectedID() == c.ID
		changed := d.DeleteBlock(c.ID)
		return Result{Changed: changed, SelectionChanged: wasSelected}

	case MoveBlockCmd:
		return Result{Changed: d.MoveBlock(c.ID, c.Direction)}

	case SelectBlockCmd:
		before := d.SelectedID()
		d.SelectBlock(c.ID)
		return Result{SelectionChanged: d.SelectedID() != before}

	case UpdateFieldCmd:
		return Result{Changed: d.UpdateField(c.ID, c.Path, c.Value)}

	case PushArrayItemCmd:
		return Result{Changed: d.UpdateArrayField(c.ID, c.Path, PushOp(c.Value))}

	case RemoveArrayItemCmd:
		if !c.Confirmed {
			return Result{
				NeedsConfirmation: true,
				Prompt:            fmt.Sprintf("Remove item %d?", c.Index+1),
			}
		}
		return Result{Changed: d.UpdateArrayField(c.ID, c.Path, RemoveAtOp(c.Index))}

	case SetTitleCmd:
		if d.Title == c.Title {
			return Result{}
		}
		d.Title = c.Title
		return Result{Changed: true}

	case SetPageStyleCmd:
		if d.Global.BackgroundColor == c.BackgroundColor {
			return Result{}
		}
		d.Global.BackgroundColor = c.BackgroundColor
		return Result{Changed: true}
	}
	return Result{}
}
