package handler

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"astral-server/internal/bridge"
	"astral-server/internal/middleware"
	"astral-server/internal/model"
	"astral-server/internal/secret"
	"astral-server/internal/store"
)

type SystemHandler struct {
	Store  *store.Store
	Cipher *secret.Cipher
}

type systemBody struct {
	SystemName       string                 `json:"system_name" binding:"required"`
	SystemType       string                 `json:"system_type" binding:"required"`
	DBHost           string                 `json:"db_host" binding:"required"`
	DBPort           int                    `json:"db_port" binding:"required"`
	DBName           string                 `json:"db_name" binding:"required"`
	DBUsername       string                 `json:"db_username" binding:"required"`
	DBPassword       string                 `json:"db_password" binding:"required"`
	ConnectionParams map[string]interface{} `json:"connection_params"`
	TableMappings    map[string]interface{} `json:"table_mappings"`
	FieldAliases     map[string]interface{} `json:"field_aliases"`
	BusinessRules    map[string]interface{} `json:"business_rules"`
}

type testConnectionBody struct {
	SystemType       string                 `json:"system_type" binding:"required"`
	DBHost           string                 `json:"db_host" binding:"required"`
	DBPort           int                    `json:"db_port" binding:"required"`
	DBName           string                 `json:"db_name" binding:"required"`
	DBUsername       string                 `json:"db_username" binding:"required"`
	DBPassword       string                 `json:"db_password" binding:"required"`
	ConnectionParams map[string]interface{} `json:"connection_params"`
}

func requireBridgeParams(c *gin.Context, params map[string]interface{}) bool {
	if v, _ := params["bridge_url"].(string); v == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bridge_url is required in connection_params"})
		return false
	}
	if v, _ := params["bridge_api_key"].(string); v == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bridge_api_key is required in connection_params"})
		return false
	}
	return true
}

// BridgeConfig builds the bridge connection descriptor for a stored system,
// decrypting the password on the way out.
func (h *SystemHandler) BridgeConfig(system model.System) (bridge.Config, error) {
	password, err := h.Cipher.Decrypt(system.DBPassword)
	if err != nil {
		return bridge.Config{}, fmt.Errorf("decrypt credentials: %w", err)
	}
	return bridge.Config{
		SystemType:       system.SystemType,
		DBHost:           system.DBHost,
		DBPort:           system.DBPort,
		DBName:           system.DBName,
		DBUsername:       system.DBUsername,
		DBPassword:       password,
		ConnectionParams: system.ConnectionParams,
	}, nil
}

func (h *SystemHandler) TestConnection(c *gin.Context) {
	var body testConnectionBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	if !requireBridgeParams(c, body.ConnectionParams) {
		return
	}

	client := bridge.NewClient(bridge.Config{
		SystemType:       body.SystemType,
		DBHost:           body.DBHost,
		DBPort:           body.DBPort,
		DBName:           body.DBName,
		DBUsername:       body.DBUsername,
		DBPassword:       body.DBPassword,
		ConnectionParams: body.ConnectionParams,
	})
	c.JSON(http.StatusOK, client.TestConnection(c.Request.Context()))
}

func (h *SystemHandler) Create(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	var body systemBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	if !requireBridgeParams(c, body.ConnectionParams) {
		return
	}

	// Prove the bridge can reach the database before storing anything.
	client := bridge.NewClient(bridge.Config{
		SystemType:       body.SystemType,
		DBHost:           body.DBHost,
		DBPort:           body.DBPort,
		DBName:           body.DBName,
		DBUsername:       body.DBUsername,
		DBPassword:       body.DBPassword,
		ConnectionParams: body.ConnectionParams,
	})
	if test := client.TestConnection(c.Request.Context()); !test.Success {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Bridge connection failed: %s", test.Message)})
		return
	}

	encrypted, err := h.Cipher.Encrypt(body.DBPassword)
	if err != nil {
		internalError(c, "create system", err)
		return
	}

	system := model.System{
		UserID:           user.ID,
		SystemName:       body.SystemName,
		SystemType:       body.SystemType,
		DBHost:           body.DBHost,
		DBPort:           body.DBPort,
		DBName:           body.DBName,
		DBUsername:       body.DBUsername,
		DBPassword:       encrypted,
		ConnectionParams: datatypes.JSONMap(body.ConnectionParams),
		TableMappings:    datatypes.JSONMap{},
		FieldAliases:     datatypes.JSONMap{},
		BusinessRules:    datatypes.JSONMap{},
		IsActive:         true,
	}
	if err := h.Store.CreateSystem(&system); err != nil {
		internalError(c, "create system", err)
		return
	}

	log.Printf("user %d created bridge-enabled system: %s", user.ID, system.SystemName)
	h.Store.AppendAudit(model.AuditLog{
		UserID: user.ID, Action: "system_create",
		Details:   fmt.Sprintf("system %q (%s)", system.SystemName, system.SystemType),
		IPAddress: c.ClientIP(), UserAgent: c.Request.UserAgent(),
	})
	c.JSON(http.StatusOK, system)
}

func (h *SystemHandler) List(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	systems, err := h.Store.ListSystems(user.ID)
	if err != nil {
		internalError(c, "list systems", err)
		return
	}
	c.JSON(http.StatusOK, systems)
}

func (h *SystemHandler) Get(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	system, ok := h.lookupSystem(c, user.ID)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, system)
}

type systemUpdateBody struct {
	SystemName       *string                `json:"system_name"`
	SystemType       *string                `json:"system_type"`
	DBHost           *string                `json:"db_host"`
	DBPort           *int                   `json:"db_port"`
	DBName           *string                `json:"db_name"`
	DBUsername       *string                `json:"db_username"`
	DBPassword       *string                `json:"db_password"`
	ConnectionParams map[string]interface{} `json:"connection_params"`
	TableMappings    map[string]interface{} `json:"table_mappings"`
	FieldAliases     map[string]interface{} `json:"field_aliases"`
	BusinessRules    map[string]interface{} `json:"business_rules"`
}

func (h *SystemHandler) Update(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	system, ok := h.lookupSystem(c, user.ID)
	if !ok {
		return
	}

	var body systemUpdateBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if body.SystemName != nil {
		system.SystemName = *body.SystemName
	}
	if body.SystemType != nil {
		system.SystemType = *body.SystemType
	}
	if body.DBHost != nil {
		system.DBHost = *body.DBHost
	}
	if body.DBPort != nil {
		system.DBPort = *body.DBPort
	}
	if body.DBName != nil {
		system.DBName = *body.DBName
	}
	if body.DBUsername != nil {
		system.DBUsername = *body.DBUsername
	}
	if body.DBPassword != nil {
		encrypted, err := h.Cipher.Encrypt(*body.DBPassword)
		if err != nil {
			internalError(c, "update system", err)
			return
		}
		system.DBPassword = encrypted
	}
	if body.ConnectionParams != nil {
		if !requireBridgeParams(c, body.ConnectionParams) {
			return
		}
		system.ConnectionParams = datatypes.JSONMap(body.ConnectionParams)
	}
	if body.TableMappings != nil {
		system.TableMappings = datatypes.JSONMap(body.TableMappings)
	}
	if body.FieldAliases != nil {
		system.FieldAliases = datatypes.JSONMap(body.FieldAliases)
	}
	if body.BusinessRules != nil {
		system.BusinessRules = datatypes.JSONMap(body.BusinessRules)
	}

	if err := h.Store.UpdateSystem(&system); err != nil {
		internalError(c, "update system", err)
		return
	}
	c.JSON(http.StatusOK, system)
}

func (h *SystemHandler) Delete(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	systemID, ok := idParam(c)
	if !ok {
		return
	}

	if err := h.Store.DeactivateSystem(user.ID, systemID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "System not found"})
			return
		}
		internalError(c, "delete system", err)
		return
	}

	log.Printf("user %d deleted system %d", user.ID, systemID)
	h.Store.AppendAudit(model.AuditLog{
		UserID: user.ID, Action: "system_delete",
		Details:   fmt.Sprintf("system %d", systemID),
		IPAddress: c.ClientIP(), UserAgent: c.Request.UserAgent(),
	})
	c.JSON(http.StatusOK, gin.H{"message": "System deleted successfully"})
}

func (h *SystemHandler) Schema(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	system, ok := h.lookupSystem(c, user.ID)
	if !ok {
		return
	}

	cfg, err := h.BridgeConfig(system)
	if err != nil {
		internalError(c, "system schema", err)
		return
	}

	result := bridge.NewClient(cfg).FetchSchema(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{
		"system_id":     system.ID,
		"system_name":   system.SystemName,
		"schema_result": result,
	})
}

func (h *SystemHandler) TestExisting(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	system, ok := h.lookupSystem(c, user.ID)
	if !ok {
		return
	}

	cfg, err := h.BridgeConfig(system)
	if err != nil {
		internalError(c, "system test", err)
		return
	}

	result := bridge.NewClient(cfg).TestConnection(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{
		"system_id":   system.ID,
		"system_name": system.SystemName,
		"success":     result.Success,
		"message":     result.Message,
		"method":      result.Method,
	})
}

func (h *SystemHandler) lookupSystem(c *gin.Context, userID uint) (model.System, bool) {
	systemID, ok := idParam(c)
	if !ok {
		return model.System{}, false
	}

	system, err := h.Store.GetSystem(userID, systemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "System not found"})
		} else {
			internalError(c, "get system", err)
		}
		return model.System{}, false
	}
	return system, true
}

func idParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid id"})
		return 0, false
	}
	return uint(id), true
}
