// internal/service/template_service.go
package service

import (
    "strings"

    "github.com/o4villegas/lead-fuego-sub001/internal/model"
)

func RenderTemplate(template string, data map[string]string) string {
    result := template
    for k, v := range data {
        if v == "" {
            v = "<unknown>"
        }
        result = strings.ReplaceAll(result, "{"+k+"}", v)
    }
    return result
}

// RenderForLead substitutes the lead's fields into a step template.
func RenderForLead(template string, lead *model.Lead) string {
    return RenderTemplate(template, map[string]string{
        "first_name": lead.FirstName,
        "last_name":  lead.LastName,
        "location":   lead.Location,
        "email":      lead.Email,
        "phone":      lead.Phone,
    })
}
