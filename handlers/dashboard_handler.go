package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	config "github.com/anjiri1684/edirpay/configs"
	"github.com/anjiri1684/edirpay/middleware"
	"github.com/anjiri1684/edirpay/services"
	"github.com/anjiri1684/edirpay/utils"
	"github.com/anjiri1684/edirpay/websocket"
	"github.com/go-playground/validator/v10"
	websocketcontrib "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/bcrypt"
)

const pageSize = 50

var validate = validator.New()

type LoginRequest struct {
	Password string `json:"password" validate:"required"`
}

type SubmissionQuery struct {
	Status string `query:"status" validate:"omitempty,oneof=AWAITING_EVIDENCE PENDING_APPROVAL APPROVED REJECTED"`
	Page   int    `query:"page" validate:"gte=0"`
}

type DashboardConfig struct {
	JWTSecret    string
	PasswordHash string
}

// Dashboard serves the read-only admin API and the live feed.
type Dashboard struct {
	ledger   *services.Ledger
	reports  *services.Reports
	pipeline *services.Pipeline
	hub      *websocket.Hub
	cfg      DashboardConfig
}

func NewDashboard(l *services.Ledger, r *services.Reports, p *services.Pipeline, hub *websocket.Hub, cfg DashboardConfig) *Dashboard {
	return &Dashboard{ledger: l, reports: r, pipeline: p, hub: hub, cfg: cfg}
}

func (d *Dashboard) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if d.cfg.PasswordHash == "" {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "Dashboard login is disabled"})
	}
	if err := bcrypt.CompareHashAndPassword([]byte(d.cfg.PasswordHash), []byte(req.Password)); err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid password"})
	}

	claims := jwt.MapClaims{
		"sub":  "dashboard",
		"role": config.RoleAdmin,
		"exp":  time.Now().Add(time.Hour * 72).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	t, err := token.SignedString([]byte(d.cfg.JWTSecret))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create token"})
	}
	return c.JSON(fiber.Map{"token": t})
}

func (d *Dashboard) Summary(c *fiber.Ctx) error {
	s, err := d.reports.Summary(c.UserContext())
	if err != nil {
		log.Printf("🔥 summary: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to build summary"})
	}
	return c.JSON(s)
}

func (d *Dashboard) Submissions(c *fiber.Ctx) error {
	var q SubmissionQuery
	if err := c.QueryParser(&q); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid query"})
	}
	if err := validate.Struct(q); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if q.Page < 1 {
		q.Page = 1
	}

	subs, total, err := d.ledger.ListByStatus(c.UserContext(), q.Status, pageSize, (q.Page-1)*pageSize)
	if err != nil {
		log.Printf("🔥 list submissions: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to list submissions"})
	}
	return c.JSON(fiber.Map{
		"data":  subs,
		"total": total,
		"page":  q.Page,
		"limit": pageSize,
	})
}

func (d *Dashboard) Members(c *fiber.Ctx) error {
	members, err := d.reports.Members(c.UserContext())
	if err != nil {
		log.Printf("🔥 list members: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to list members"})
	}
	return c.JSON(fiber.Map{"data": members, "total": len(members)})
}

func (d *Dashboard) SubmissionsCSV(c *fiber.Ctx) error {
	var buf bytes.Buffer
	if err := d.reports.ExportSubmissionsCSV(c.UserContext(), &buf); err != nil {
		log.Printf("🔥 export submissions: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to export"})
	}
	c.Set(fiber.HeaderContentType, "text/csv")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="submissions_%s.csv"`, time.Now().Format("20060102")))
	return c.Send(buf.Bytes())
}

// WebAppSubmit receives the mini app form for the Telegram user verified by
// middleware.WebAppAuth.
func (d *Dashboard) WebAppSubmit(c *fiber.Ctx) error {
	user, ok := c.Locals(middleware.WebAppUserKey).(utils.WebAppUser)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}
	payload, err := ParseForm(c.Body())
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	who := services.Identity{ID: user.ID, Username: user.Username, FullName: user.FullName()}
	sub, err := d.pipeline.SubmitForm(c.UserContext(), who, payload)
	if err != nil {
		var verr *services.ValidationError
		if errors.As(err, &verr) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		log.Printf("🔥 web app submit for %d: %v", user.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to record submission"})
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"id":     sub.ID,
		"code":   sub.Code(),
		"status": sub.Status,
		"total":  sub.Total(),
	})
}

func (d *Dashboard) Health(c *fiber.Ctx) error {
	if db, err := d.ledger.DB().DB(); err != nil || db.PingContext(c.UserContext()) != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "degraded"})
	}
	return c.JSON(fiber.Map{"status": "ok", "dashboards": d.hub.Clients()})
}

// ServeWs authenticates a dashboard socket with its first message and then
// streams submission events to it until it disconnects.
func (d *Dashboard) ServeWs(c *websocketcontrib.Conn) {
	type AuthMessage struct {
		Type  string `json:"type"`
		Token string `json:"token"`
	}
	var authMsg AuthMessage
	if err := c.ReadJSON(&authMsg); err != nil || authMsg.Type != "auth" {
		log.Printf("WebSocket auth failed: invalid or missing auth message, error: %v", err)
		_ = c.WriteJSON(fiber.Map{"error": "Invalid or missing auth message"})
		c.Close()
		return
	}
	claims, err := parseToken(authMsg.Token, d.cfg.JWTSecret)
	if err != nil || claims["role"] != config.RoleAdmin {
		log.Printf("WebSocket auth failed: %v", err)
		_ = c.WriteJSON(fiber.Map{"error": "Invalid token"})
		c.Close()
		return
	}

	if !d.hub.Join(c) {
		_ = c.WriteJSON(fiber.Map{"error": "Server is shutting down"})
		c.Close()
		return
	}
	defer d.hub.Leave(c)

	for {
		if _, _, err := c.ReadMessage(); err != nil {
			if !websocketcontrib.IsCloseError(err, websocketcontrib.CloseGoingAway, websocketcontrib.CloseNormalClosure) {
				log.Printf("WebSocket read error: %v", err)
			}
			return
		}
	}
}

func parseToken(tokenString, secret string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(strings.TrimSpace(tokenString), func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

