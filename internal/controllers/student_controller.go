package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"campus_cruiser/internal/middleware"
	"campus_cruiser/internal/services"
)

// StudentController serves the student directory to admins and to students themselves.
type StudentController struct {
	directory *services.Directory
}

func NewStudentController(directory *services.Directory) *StudentController {
	return &StudentController{directory: directory}
}

func (sc *StudentController) ListStudents(c *gin.Context) {
	students, err := sc.directory.ListStudents(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"students": students})
}

// CreateStudent returns the generated password once; it is not stored in clear.
func (sc *StudentController) CreateStudent(c *gin.Context) {
	var input services.StudentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body format: " + err.Error()})
		return
	}
	created, err := sc.directory.CreateStudent(c.Request.Context(), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (sc *StudentController) DeleteStudent(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := sc.directory.DeleteStudent(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Student deleted successfully."})
}

func (sc *StudentController) DeleteAllStudents(c *gin.Context) {
	n, err := sc.directory.DeleteAllStudents(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": n})
}

// MyRoute returns the authenticated student's route and stop.
func (sc *StudentController) MyRoute(c *gin.Context) {
	user, err := sc.directory.GetUser(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	route, stop, err := sc.directory.FindStudentRouteAndStop(c.Request.Context(), user.RollNumber)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"route": route, "stop": stop})
}

func (sc *StudentController) UpdateProfile(c *gin.Context) {
	var input services.ProfileInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body format: " + err.Error()})
		return
	}
	user, err := sc.directory.UpdateProfile(c.Request.Context(), middleware.UserID(c), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

func (sc *StudentController) ChangePassword(c *gin.Context) {
	var body struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body format: " + err.Error()})
		return
	}
	if err := sc.directory.ChangePassword(c.Request.Context(), middleware.UserID(c), body.CurrentPassword, body.NewPassword); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password updated successfully."})
}
