// ABOUTME: Note handlers shared by contact notes and activity notes
// ABOUTME: Reading a note needs access to its parent, changing it needs authorship
package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Duckiduc/omw-crm-sub001/db"
	"github.com/Duckiduc/omw-crm-sub001/models"
	"github.com/Duckiduc/omw-crm-sub001/validate"
)

var (
	contactNoteKind  = db.ContactNotes
	activityNoteKind = db.ActivityNotes
)

type noteHandlers struct {
	s    *Server
	kind db.NoteKind
}

// parentKey is the query and body field naming the note's parent.
func (h *noteHandlers) parentKey() string {
	if h.kind.Resource == models.ResourceContact {
		return "contactId"
	}
	return "activityId"
}

func (h *noteHandlers) list(c *gin.Context) {
	parentID := c.Query(h.parentKey())
	if parentID == "" {
		failValidation(c, validate.Errors{h.parentKey(): "This field is required"})
		return
	}
	if !h.s.access(c, h.kind.Resource, parentID, db.AccessView) {
		return
	}
	notes, err := db.ListNotes(h.s.db, h.kind, parentID)
	if err != nil {
		h.s.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"notes": notes})
}

func (h *noteHandlers) create(c *gin.Context) {
	var body map[string]string
	if !bindJSON(c, &body) {
		return
	}
	parentID := body[h.parentKey()]
	errs := validate.NoteForm.Validate(body)
	if parentID == "" {
		if errs == nil {
			errs = validate.Errors{}
		}
		errs[h.parentKey()] = "This field is required"
	}
	if errs != nil {
		failValidation(c, errs)
		return
	}
	if !h.s.access(c, h.kind.Resource, parentID, db.AccessView) {
		return
	}

	note, err := db.CreateNote(h.s.db, h.kind, parentID, currentUser(c).ID, strings.TrimSpace(body["content"]))
	if err != nil {
		h.s.internalError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"note": note})
}

// authored loads note id when the caller wrote it.
func (h *noteHandlers) authored(c *gin.Context, id string) *models.Note {
	note, err := db.GetNote(h.s.db, h.kind, id)
	if err != nil {
		h.s.internalError(c, err)
		return nil
	}
	if note == nil {
		fail(c, http.StatusNotFound, "Note not found")
		return nil
	}
	if note.AuthorID != currentUser(c).ID {
		fail(c, http.StatusForbidden, "You do not have permission to perform this action")
		return nil
	}
	return note
}

func (h *noteHandlers) update(c *gin.Context) {
	note := h.authored(c, c.Param("id"))
	if note == nil {
		return
	}
	var body struct {
		Content string `json:"content"`
	}
	if !bindJSON(c, &body) {
		return
	}
	if errs := validate.NoteForm.Validate(map[string]string{"content": body.Content}); errs != nil {
		failValidation(c, errs)
		return
	}
	updated, err := db.UpdateNote(h.s.db, h.kind, note.ID, strings.TrimSpace(body.Content))
	if err != nil {
		h.s.storeError(c, err, "Note not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"note": updated})
}

func (h *noteHandlers) remove(c *gin.Context) {
	note := h.authored(c, c.Param("id"))
	if note == nil {
		return
	}
	if err := db.DeleteNote(h.s.db, h.kind, note.ID); err != nil {
		h.s.storeError(c, err, "Note not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Note deleted"})
}
