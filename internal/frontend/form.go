package frontend

import (
	"fmt"

	"github.com/ZanzyTHEbar/aq10-triage/internal/screening"
)

const (
	answerYes = "Sim"
	answerNo  = "Não"

	// DefaultAge pre-fills the age input
	DefaultAge = 36
)

// Question is one AQ-10 item as presented on the form.
type Question struct {
	ID     string
	Name   string
	Prompt string
}

// Questions lists the ten items in order.
var Questions = []Question{
	{"A1", "q1", "Percebe pequenos sons quando outros não?"},
	{"A2", "q2", "Foca mais no todo do que em detalhes?"},
	{"A3", "q3", "Consegue fazer mais de uma coisa ao mesmo tempo?"},
	{"A4", "q4", "Se interrompida, consegue voltar ao que estava fazendo?"},
	{"A5", "q5", "Sabe como manter uma conversa com seus pares?"},
	{"A6", "q6", "É boa conversadora socialmente?"},
	{"A7", "q7", "Entende personagens ao ler uma história?"},
	{"A8", "q8", "Gosta de jogos de 'faz de conta'?"},
	{"A9", "q9", "Entende o que alguém sente olhando para o rosto?"},
	{"A10", "q10", "Tem dificuldade em fazer novos amigos?"},
}

// ScreeningForm is the urlencoded body posted by the questionnaire page.
type ScreeningForm struct {
	Q1  string `form:"q1" binding:"required,oneof=Sim Não"`
	Q2  string `form:"q2" binding:"required,oneof=Sim Não"`
	Q3  string `form:"q3" binding:"required,oneof=Sim Não"`
	Q4  string `form:"q4" binding:"required,oneof=Sim Não"`
	Q5  string `form:"q5" binding:"required,oneof=Sim Não"`
	Q6  string `form:"q6" binding:"required,oneof=Sim Não"`
	Q7  string `form:"q7" binding:"required,oneof=Sim Não"`
	Q8  string `form:"q8" binding:"required,oneof=Sim Não"`
	Q9  string `form:"q9" binding:"required,oneof=Sim Não"`
	Q10 string `form:"q10" binding:"required,oneof=Sim Não"`

	Age       int    `form:"idade" binding:"required,min=1,max=120"`
	Sex       string `form:"genero" binding:"required,oneof=Masculino Feminino"`
	Jaundice  string `form:"ictericia" binding:"required,oneof=Sim Não"`
	FamilyASD string `form:"familia" binding:"required,oneof=Sim Não"`
}

func yes(v string) (bool, error) {
	switch v {
	case answerYes:
		return true, nil
	case answerNo:
		return false, nil
	}
	return false, fmt.Errorf("invalid answer %q", v)
}

// ToSubmission converts the posted form into a submission.
func (f ScreeningForm) ToSubmission() (screening.Submission, error) {
	var sub screening.Submission

	raw := [screening.ItemCount]string{f.Q1, f.Q2, f.Q3, f.Q4, f.Q5, f.Q6, f.Q7, f.Q8, f.Q9, f.Q10}
	for i, v := range raw {
		ans, err := yes(v)
		if err != nil {
			return sub, fmt.Errorf("%s: %w", Questions[i].ID, err)
		}
		sub.Answers[i] = ans
	}

	sex, err := screening.ParseSex(f.Sex)
	if err != nil {
		return sub, err
	}
	jaundice, err := yes(f.Jaundice)
	if err != nil {
		return sub, fmt.Errorf("ictericia: %w", err)
	}
	family, err := yes(f.FamilyASD)
	if err != nil {
		return sub, fmt.Errorf("familia: %w", err)
	}

	sub.Profile = screening.DemographicProfile{
		Age:           f.Age,
		Sex:           sex,
		Jaundice:      jaundice,
		FamilyHistory: family,
	}
	return sub, sub.Profile.Validate()
}
