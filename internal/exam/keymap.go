package exam

import "strings"

// Keyboard command surface, matched case-insensitively against DOM-style key
// names forwarded by the client:
//
//	A-D        select the option at that position (choice questions only)
//	N / →      next question
//	P / ←      previous question
//	S          open the submit-confirmation gate
//	F1 / Esc   toggle the shortcut reference
const (
	KeyNext       = "N"
	KeyPrevious   = "P"
	KeySubmit     = "S"
	KeyHelp       = "F1"
	KeyEscape     = "ESCAPE"
	KeyArrowRight = "ARROWRIGHT"
	KeyArrowLeft  = "ARROWLEFT"
)

// HandleKey dispatches a single key press through the modal gate. While the
// submit gate is open every key is ignored (confirmation happens through
// explicit commands); while the help dialog is open only its toggle key is
// honored. Returns whether the key was consumed.
func (s *Session) HandleKey(key string) bool {
	if s.state != StateInProgress {
		return false
	}

	key = strings.ToUpper(key)

	switch s.modal {
	case ModalSubmit:
		return false
	case ModalHelp:
		if key == KeyHelp || key == KeyEscape {
			s.ToggleHelp()
			return true
		}
		return false
	}

	switch key {
	case KeyNext, KeyArrowRight:
		s.Navigate(DirectionNext)
		return true
	case KeyPrevious, KeyArrowLeft:
		s.Navigate(DirectionPrevious)
		return true
	case KeySubmit:
		s.RequestSubmit()
		return true
	case KeyHelp, KeyEscape:
		s.ToggleHelp()
		return true
	}

	// Letter keys pick the option at that position on the current question.
	if len(key) == 1 && key[0] >= 'A' && key[0] <= 'D' {
		q := s.CurrentQuestion()
		if q == nil || !q.Type.HasOptions() {
			return false
		}
		pos := int(key[0] - 'A')
		if pos >= len(q.Options) {
			return false
		}
		s.SelectAnswer(q.ID.String(), key)
		return true
	}

	return false
}
