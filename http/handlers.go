// http/handlers.go
package http

import (
	"encoding/json"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/rs/zerolog"

	"github.com/ViniZap4/lumi-entries/domain"
	"github.com/ViniZap4/lumi-entries/store"
	"github.com/ViniZap4/lumi-entries/ws"
)

// Hub fans entry events out to websocket clients.
type Hub interface {
	Broadcast(msgType string, entry *domain.Note)
	Register(conn ws.Conn)
	HandleConnection(conn ws.Conn)
}

type Server struct {
	store store.Store
	hub   Hub
	log   zerolog.Logger
}

func NewServer(st store.Store, hub Hub, log zerolog.Logger) *Server {
	return &Server{store: st, hub: hub, log: log}
}

// RegisterRoutes mounts the API on r. protect guards every route except
// the health check.
func (s *Server) RegisterRoutes(r fiber.Router, protect fiber.Handler) {
	r.Get("/health", s.Health)

	entries := r.Group("/entries", protect)
	entries.Get("", s.ListEntries)
	entries.Post("", s.CreateEntry)
	entries.Get("/:id", s.GetEntry)
	entries.Put("/:id", s.UpdateEntry)
	entries.Delete("/:id", s.DeleteEntry)

	r.Get("/ws", protect, s.HandleWebSocket)
}

func (s *Server) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"success": true, "message": "OK"})
}

func (s *Server) ListEntries(c *fiber.Ctx) error {
	entries, err := s.store.List(c.UserContext())
	if err != nil {
		return err
	}
	if entries == nil {
		entries = []*domain.Note{}
	}
	return c.JSON(fiber.Map{"success": true, "entries": entries})
}

func (s *Server) GetEntry(c *fiber.Ctx) error {
	id, err := entryID(c)
	if err != nil {
		return err
	}
	entry, err := s.store.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "entry": entry})
}

// createRequest tells a missing field apart from an empty one.
type createRequest struct {
	Title   *string `json:"title"`
	Content *string `json:"content"`
}

func (s *Server) CreateEntry(c *fiber.Ctx) error {
	var req createRequest
	if err := decodeBody(c, &req); err != nil {
		return err
	}
	if req.Title == nil || req.Content == nil {
		return fmt.Errorf("%w: title and content are required", domain.ErrInvalid)
	}
	in := domain.NoteInput{Title: *req.Title, Content: *req.Content}
	if err := in.Validate(); err != nil {
		return err
	}

	entry, err := s.store.Create(c.UserContext(), in)
	if err != nil {
		return err
	}
	s.hub.Broadcast(ws.EntryCreated, entry)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "Entry created successfully",
		"entryId": entry.ID,
		"entry":   entry,
	})
}

func (s *Server) UpdateEntry(c *fiber.Ctx) error {
	id, err := entryID(c)
	if err != nil {
		return err
	}
	var patch domain.NotePatch
	if err := decodeBody(c, &patch); err != nil {
		return err
	}
	if patch.Empty() {
		return fmt.Errorf("%w: no fields to update", domain.ErrInvalid)
	}
	if err := patch.Validate(); err != nil {
		return err
	}

	entry, err := s.store.Update(c.UserContext(), id, patch)
	if err != nil {
		return err
	}
	s.hub.Broadcast(ws.EntryUpdated, entry)

	return c.JSON(fiber.Map{"success": true, "entry": entry})
}

func (s *Server) DeleteEntry(c *fiber.Ctx) error {
	id, err := entryID(c)
	if err != nil {
		return err
	}
	if err := s.store.Delete(c.UserContext(), id); err != nil {
		return err
	}
	s.hub.Broadcast(ws.EntryDeleted, &domain.Note{ID: id})

	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) HandleWebSocket(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}
	return websocket.New(func(conn *websocket.Conn) {
		s.hub.Register(conn)
		s.hub.HandleConnection(conn)
	})(c)
}

func entryID(c *fiber.Ctx) (int64, error) {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "Invalid entry id")
	}
	return int64(id), nil
}

func decodeBody(c *fiber.Ctx, v any) error {
	if err := json.Unmarshal(c.Body(), v); err != nil {
		return fmt.Errorf("%w: %v", errInvalidJSON, err)
	}
	return nil
}
