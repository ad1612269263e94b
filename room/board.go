// room/board.go
package room

import (
	"fmt"
)

// Label is the odd number printed on a box and on each face of the die.
type Label int

// Labels lists every box in board order.
var Labels = [5]Label{1, 3, 5, 7, 9}

func (l Label) Valid() bool {
	return l >= 1 && l <= 9 && l%2 == 1
}

func (l Label) index() int {
	return int(l-1) / 2
}

type BodyPart string

const (
	BodyPartFace     BodyPart = "Face"
	BodyPartFullBody BodyPart = "Full Body"
)

const (
	// FullLoad is the bullet count that authorises a shot.
	FullLoad = 3
	// SaturatedStage is the stage at which a box reaches full load.
	SaturatedStage = 5
)

// BoxState is one of the five progression slots on a board.
type BoxState struct {
	Stage         int
	RevealedParts []BodyPart
	BulletCount   int
	Disabled      bool
}

func (b *BoxState) revealed(part BodyPart) bool {
	for _, p := range b.RevealedParts {
		if p == part {
			return true
		}
	}
	return false
}

func (b *BoxState) loaded() bool {
	return !b.Disabled && b.BulletCount == FullLoad
}

// PlayerState is a player's private board plus public status.
type PlayerState struct {
	ID            string
	Name          string
	Boxes         [5]BoxState
	IsAlive       bool
	MustShoot     bool
	BodyPartTotal int
}

func newPlayerState(id, name string) *PlayerState {
	return &PlayerState{
		ID:      id,
		Name:    name,
		IsAlive: true,
	}
}

// Box returns the box for a valid label, nil otherwise.
func (p *PlayerState) Box(label Label) *BoxState {
	if !label.Valid() {
		return nil
	}
	return &p.Boxes[label.index()]
}

func (p *PlayerState) allDisabled() bool {
	for i := range p.Boxes {
		if !p.Boxes[i].Disabled {
			return false
		}
	}
	return true
}

func (p *PlayerState) disabledCount() int {
	n := 0
	for i := range p.Boxes {
		if p.Boxes[i].Disabled {
			n++
		}
	}
	return n
}

// loadedBox returns the first box, in label order, holding a full load.
func (p *PlayerState) loadedBox() (Label, *BoxState, bool) {
	for _, l := range Labels {
		if b := p.Box(l); b.loaded() {
			return l, b, true
		}
	}
	return 0, nil, false
}

// RollOutcome describes what a die face did to the roller's board.
type RollOutcome struct {
	Success  bool    `json:"success"`
	Message  string  `json:"message"`
	Box      BoxView `json:"box"`
	CanShoot bool    `json:"canShoot"`
}

// applyRoll resolves a rolled label against the board.
// Disabled boxes and pending shots leave the board untouched.
func (p *PlayerState) applyRoll(label Label) RollOutcome {
	box := p.Box(label)
	if box.Disabled {
		return RollOutcome{Message: fmt.Sprintf("Box %d is disabled, cannot roll here", label), Box: box.view(label)}
	}
	if p.MustShoot {
		return RollOutcome{Message: "You must shoot first before rolling again", Box: box.view(label)}
	}

	box.Stage++
	out := RollOutcome{Success: true}
	switch {
	case box.Stage == 1 && !box.revealed(BodyPartFace):
		box.RevealedParts = append(box.RevealedParts, BodyPartFace)
		p.BodyPartTotal++
		out.Message = fmt.Sprintf("Face appeared in box %d", label)
	case box.Stage == 2 && !box.revealed(BodyPartFullBody):
		box.RevealedParts = append(box.RevealedParts, BodyPartFullBody)
		p.BodyPartTotal++
		out.Message = fmt.Sprintf("Full Body appeared in box %d", label)
	case box.Stage == 3:
		box.BulletCount = 1
		out.Message = fmt.Sprintf("Gun with 1 bullet in box %d", label)
	case box.Stage == 4:
		box.BulletCount = 2
		out.Message = fmt.Sprintf("Gun upgraded to 2 bullets in box %d", label)
	case box.Stage >= SaturatedStage:
		box.BulletCount = FullLoad
		p.MustShoot = true
		out.CanShoot = true
		out.Message = fmt.Sprintf("Fully loaded: 3 bullets in box %d, you must shoot now", label)
	}
	out.Box = box.view(label)
	return out
}

// disable locks a box for good. A full load sitting in it is forfeited.
func (p *PlayerState) disable(label Label) {
	p.Box(label).Disabled = true
	if p.MustShoot {
		_, _, ok := p.loadedBox()
		p.MustShoot = ok
	}
	if p.allDisabled() {
		p.IsAlive = false
	}
}

// PublicPlayer is what every room member may see about a player.
type PublicPlayer struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	IsAlive        bool   `json:"isAlive"`
	TotalBodyParts int    `json:"totalBodyParts"`
}

func (p *PlayerState) Public() PublicPlayer {
	return PublicPlayer{
		ID:             p.ID,
		Name:           p.Name,
		IsAlive:        p.IsAlive,
		TotalBodyParts: p.BodyPartTotal,
	}
}

// BoxView is a copy of a box safe to hand outside the room lock.
type BoxView struct {
	Label     Label      `json:"label"`
	Stage     int        `json:"stage"`
	BodyParts []BodyPart `json:"bodyParts"`
	Bullets   int        `json:"bullets"`
	Disabled  bool       `json:"disabled"`
}

func (b *BoxState) view(label Label) BoxView {
	parts := make([]BodyPart, len(b.RevealedParts))
	copy(parts, b.RevealedParts)
	return BoxView{
		Label:     label,
		Stage:     b.Stage,
		BodyParts: parts,
		Bullets:   b.BulletCount,
		Disabled:  b.Disabled,
	}
}

// Board is a private copy of a player's full state, sent only to its owner.
type Board struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	IsAlive        bool      `json:"isAlive"`
	MustShoot      bool      `json:"mustShoot"`
	TotalBodyParts int       `json:"totalBodyParts"`
	Boxes          []BoxView `json:"boxes"`
}

func (p *PlayerState) Board() Board {
	boxes := make([]BoxView, 0, len(Labels))
	for _, l := range Labels {
		boxes = append(boxes, p.Box(l).view(l))
	}
	return Board{
		ID:             p.ID,
		Name:           p.Name,
		IsAlive:        p.IsAlive,
		MustShoot:      p.MustShoot,
		TotalBodyParts: p.BodyPartTotal,
		Boxes:          boxes,
	}
}
