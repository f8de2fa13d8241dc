package school

// Request payloads of the REST contract.
type (
	SectionInput struct {
		Name     string   `json:"name"`
		Subjects []string `json:"subjects"`
	}

	NewGrade struct {
		GradeName string         `json:"gradeName"`
		Sections  []SectionInput `json:"sections"`
	}

	RenameGrade struct {
		Name string `json:"name"`
	}

	SectionSubjects struct {
		Subjects []string `json:"subjects"`
	}

	NewSubject struct {
		Name string `json:"name"`
	}

	TutorInput struct {
		Name  string `json:"name"`
		Email string `json:"email"`
		Phone string `json:"phone"`
	}

	// CreatedTutor is the response of a tutor creation.
	// TemporaryPassword is display-only: it is never stored and cannot be fetched again.
	CreatedTutor struct {
		Tutor
		TemporaryPassword string `json:"temporaryPassword,omitempty"`
	}

	AssignmentInput struct {
		TutorID      string              `json:"tutorId"`
		Assignments  map[string][]string `json:"assignments"`
		ClassGrade   string              `json:"classGrade,omitempty"`
		ClassSection string              `json:"classSection,omitempty"`
	}

	LoginRequest struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	LoginResponse struct {
		AccessToken  string `json:"accessToken"`
		RefreshToken string `json:"refreshToken,omitempty"`
		User         User   `json:"user"`
	}
)
