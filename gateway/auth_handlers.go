package gateway

import (
	"net/http"

	"github.com/example/freshgrocers/pkg/service"
	"github.com/gin-gonic/gin"
)

func (g *Gateway) register(c *gin.Context) {
	var req service.RegisterCustomerRequest
	if !g.bind(c, &req) {
		return
	}
	customer, err := g.svc.Auth.RegisterCustomer(c.Request.Context(), &req)
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"customer": customer,
		"message":  "Registration successful! Please log in.",
	})
}

// login takes ?type=customer (default) or ?type=staff.
func (g *Gateway) login(c *gin.Context) {
	var req service.LoginRequest
	if !g.bind(c, &req) {
		return
	}

	var (
		result *service.LoginResult
		err    error
	)
	switch c.DefaultQuery("type", "customer") {
	case "customer":
		result, err = g.svc.Auth.LoginCustomer(c.Request.Context(), &req)
	case "staff":
		result, err = g.svc.Auth.LoginStaff(c.Request.Context(), &req)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "login type must be customer or staff"})
		return
	}
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (g *Gateway) logout(c *gin.Context) {
	if err := g.svc.Auth.Logout(c.Request.Context(), sessionFrom(c)); err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (g *Gateway) me(c *gin.Context) {
	c.JSON(http.StatusOK, sessionFrom(c))
}

func (g *Gateway) applyForStaff(c *gin.Context) {
	var req service.StaffApplicationRequest
	if !g.bind(c, &req) {
		return
	}
	app, err := g.svc.Staff.Apply(c.Request.Context(), &req)
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"application": app,
		"message":     "Registration submitted. An administrator will review your application.",
	})
}
