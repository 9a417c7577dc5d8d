package i18n

import "strings"

// DetectLanguage maps an Accept-Language header to a supported language.
// Only "fr" and "en" are supported; French is the default.
func DetectLanguage(header string) string {
	h := strings.ToLower(strings.TrimSpace(header))
	if h == "" {
		return "fr"
	}
	for _, part := range strings.Split(h, ",") {
		code := strings.SplitN(strings.TrimSpace(part), ";", 2)[0]
		code = strings.SplitN(code, "-", 2)[0]
		switch code {
		case "en":
			return "en"
		case "fr":
			return "fr"
		}
	}
	return "fr"
}

var messages = map[string]map[string]string{
	"fr": {
		"required":              "Requis",
		"must_be_positive":      "Doit être supérieur à zéro",
		"date_in_future":        "La date ne peut pas être dans le futur",
		"login_failed":          "Nom d'utilisateur ou mot de passe incorrect.",
		"account_created":       "Compte créé avec succès!",
		"account_exists":        "Erreur: Nom d'utilisateur ou email déjà utilisé.",
		"leve_saved":            "Levé enregistré avec succès!",
		"leve_updated":          "Levé modifié avec succès!",
		"leve_deleted":          "Levé supprimé avec succès!",
		"leve_not_permitted":    "Levé non trouvé ou vous n'êtes pas autorisé à le modifier.",
		"user_deleted":          "Utilisateur supprimé avec succès!",
		"admin_protected":       "Impossible de supprimer l'administrateur principal.",
		"entry_forbidden":       "Accès non autorisé. Seuls les superviseurs et administrateurs peuvent saisir des levés.",
		"storage_unavailable":   "Erreur de connexion à la base de données.",
		"villages_unavailable":  "Impossible de charger les données des villages.",
		"password_changed":      "Mot de passe modifié avec succès!",
		"password_mismatch":     "Les mots de passe ne correspondent pas.",
		"missing_fields_prefix": "Veuillez renseigner",

		"nav_saisie":       "Saisie",
		"nav_suivi":        "Suivi",
		"nav_dashboard":    "Tableau de bord",
		"nav_users":        "Utilisateurs",
		"nav_data":         "Données",
		"nav_account":      "Compte",
		"nav_logout":       "Déconnexion",
		"nav_login":        "Connexion",
		"nav_signup":       "Créer un compte",
		"login_title":      "Connexion",
		"login_button":     "Se connecter",
		"signup_title":     "Créer un compte",
		"signup_button":    "Créer le compte",
		"username":         "Nom d'utilisateur",
		"password":         "Mot de passe",
		"password_confirm": "Confirmer le mot de passe",
		"email":            "Email",
		"phone":            "Téléphone",
		"role":             "Rôle",
		"saisie_title":     "Saisie des levés",
		"region":           "Région",
		"commune":          "Commune",
		"village":          "Village",
		"type":             "Type de levé",
		"quantite":         "Quantité",
		"appareil":         "Appareil",
		"appareil_autre":   "Préciser l'appareil",
		"topographe":       "Topographe",
		"superviseur":      "Superviseur",
		"date":             "Date",
		"save_button":      "Enregistrer",
		"update_button":    "Modifier",
		"cancel":           "Annuler",
		"edit":             "Modifier",
		"delete":           "Supprimer",
		"editing_notice":   "Modification du levé",
		"edit_existing":    "Modifier un levé existant",
		"suivi_title":      "Suivi de mes levés",
		"records":          "levés",
		"total_quantity":   "quantité totale",
		"dashboard_title":  "Tableau de bord",
		"filter":           "Filtrer",
		"by_region":        "Par région",
		"by_type":          "Par type",
		"by_topographe":    "Par topographe",
		"all_records":      "Tous les levés",
		"users_title":      "Gestion des utilisateurs",
		"create_user":      "Créer un utilisateur",
		"create_button":    "Créer",
		"data_title":       "Toutes les données",
		"export_xlsx":      "Exporter en Excel",
		"account_title":    "Mon compte",
		"change_password":  "Changer le mot de passe",
		"current_password": "Mot de passe actuel",
		"new_password":     "Nouveau mot de passe",
		"change_button":    "Changer",
		"forbidden_title":  "Accès refusé",
	},
	"en": {
		"required":              "Required",
		"must_be_positive":      "Must be greater than zero",
		"date_in_future":        "Date cannot be in the future",
		"login_failed":          "Incorrect username or password.",
		"account_created":       "Account created successfully!",
		"account_exists":        "Error: username or email already in use.",
		"leve_saved":            "Survey saved successfully!",
		"leve_updated":          "Survey updated successfully!",
		"leve_deleted":          "Survey deleted successfully!",
		"leve_not_permitted":    "Survey not found or you are not allowed to modify it.",
		"user_deleted":          "User deleted successfully!",
		"admin_protected":       "The primary administrator cannot be deleted.",
		"entry_forbidden":       "Access denied. Only supervisors and administrators may enter surveys.",
		"storage_unavailable":   "Database connection error.",
		"villages_unavailable":  "Could not load village data.",
		"password_changed":      "Password changed successfully!",
		"password_mismatch":     "Passwords do not match.",
		"missing_fields_prefix": "Please fill in",

		"nav_saisie":       "Entry",
		"nav_suivi":        "My surveys",
		"nav_dashboard":    "Dashboard",
		"nav_users":        "Users",
		"nav_data":         "Data",
		"nav_account":      "Account",
		"nav_logout":       "Log out",
		"nav_login":        "Log in",
		"nav_signup":       "Sign up",
		"login_title":      "Log in",
		"login_button":     "Log in",
		"signup_title":     "Create an account",
		"signup_button":    "Create account",
		"username":         "Username",
		"password":         "Password",
		"password_confirm": "Confirm password",
		"email":            "Email",
		"phone":            "Phone",
		"role":             "Role",
		"saisie_title":     "Survey entry",
		"region":           "Region",
		"commune":          "Commune",
		"village":          "Village",
		"type":             "Survey type",
		"quantite":         "Quantity",
		"appareil":         "Instrument",
		"appareil_autre":   "Specify instrument",
		"topographe":       "Surveyor",
		"superviseur":      "Supervisor",
		"date":             "Date",
		"save_button":      "Save",
		"update_button":    "Update",
		"cancel":           "Cancel",
		"edit":             "Edit",
		"delete":           "Delete",
		"editing_notice":   "Editing survey",
		"edit_existing":    "Edit an existing survey",
		"suivi_title":      "My surveys",
		"records":          "records",
		"total_quantity":   "total quantity",
		"dashboard_title":  "Dashboard",
		"filter":           "Filter",
		"by_region":        "By region",
		"by_type":          "By type",
		"by_topographe":    "By surveyor",
		"all_records":      "All records",
		"users_title":      "User management",
		"create_user":      "Create a user",
		"create_button":    "Create",
		"data_title":       "All data",
		"export_xlsx":      "Export to Excel",
		"account_title":    "My account",
		"change_password":  "Change password",
		"current_password": "Current password",
		"new_password":     "New password",
		"change_button":    "Change",
		"forbidden_title":  "Access denied",
	},
}

// T translates a message code for the given language. Unknown languages fall
// back to French; unknown codes fall back to the code itself so a missing
// translation never blanks out a message.
func T(lang, code string) string {
	if m, ok := messages[lang]; ok {
		if s, ok := m[code]; ok {
			return s
		}
	}
	if s, ok := messages["fr"][code]; ok {
		return s
	}
	return code
}
