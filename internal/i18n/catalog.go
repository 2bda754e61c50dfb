package i18n

import "golang.org/x/text/language"

// catalogs holds the embedded message catalogs. French first: it is the
// site's default language.
var catalogs = []struct {
	tag      language.Tag
	messages map[string]string
}{
	{language.French, frenchMessages},
	{language.English, englishMessages},
	{language.Arabic, arabicMessages},
}

var frenchMessages = map[string]string{
	"emailRequired":           "L'adresse e-mail est requise",
	"invalidEmail":            "Adresse e-mail invalide",
	"passwordRequired":        "Le mot de passe est requis",
	"passwordTooShort":        "Le mot de passe doit contenir au moins 6 caractères",
	"confirmPasswordRequired": "La confirmation du mot de passe est requise",
	"passwordsDoNotMatch":     "Les mots de passe ne correspondent pas",
	"usernameRequired":        "Le nom d'utilisateur est requis",
	"usernameTooShort":        "Le nom d'utilisateur doit contenir au moins 3 caractères",
	"phoneRequired":           "Le numéro de téléphone est requis",
	"sportRequired":           "Veuillez sélectionner une discipline sportive",
	"otpRequired":             "Le code de vérification est requis",
	"loginError":              "E-mail ou mot de passe incorrect",
	"loginSuccess":            "Connexion réussie, redirection...",
	"signupError":             "L'inscription a échoué, veuillez réessayer",
	"signupSuccess":           "Compte créé, un code de vérification vous a été envoyé",
	"emailAlreadyExists":      "Cette adresse e-mail est déjà enregistrée",
	"otpInvalid":              "Code invalide ou expiré",
	"otpSuccess":              "Vérification réussie, redirection...",
	"resendOtpError":          "L'envoi du code a échoué, veuillez réessayer",
	"resendOtpSuccess":        "Un nouveau code vous a été envoyé",
	"resendOtpCooldown":       "Renvoyer le code dans {seconds} s",
	"unexpectedError":         "Une erreur inattendue s'est produite",
	"errorLoadingProfile":     "Impossible de charger le profil",
	"profileUpdatedSuccess":   "Profil mis à jour",
	"profileUpdatedError":     "La mise à jour du profil a échoué",
}

var englishMessages = map[string]string{
	"emailRequired":           "Email address is required",
	"invalidEmail":            "Invalid email address",
	"passwordRequired":        "Password is required",
	"passwordTooShort":        "Password must be at least 6 characters",
	"confirmPasswordRequired": "Password confirmation is required",
	"passwordsDoNotMatch":     "Passwords do not match",
	"usernameRequired":        "Username is required",
	"usernameTooShort":        "Username must be at least 3 characters",
	"phoneRequired":           "Phone number is required",
	"sportRequired":           "Please select a sport discipline",
	"otpRequired":             "Verification code is required",
	"loginError":              "Incorrect email or password",
	"loginSuccess":            "Signed in, redirecting...",
	"signupError":             "Signup failed, please try again",
	"signupSuccess":           "Account created, a verification code has been sent",
	"emailAlreadyExists":      "This email address is already registered",
	"otpInvalid":              "Invalid or expired code",
	"otpSuccess":              "Verification succeeded, redirecting...",
	"resendOtpError":          "Sending the code failed, please try again",
	"resendOtpSuccess":        "A new code has been sent",
	"resendOtpCooldown":       "Resend code in {seconds}s",
	"unexpectedError":         "An unexpected error occurred",
	"errorLoadingProfile":     "Could not load the profile",
	"profileUpdatedSuccess":   "Profile updated",
	"profileUpdatedError":     "Profile update failed",
}

var arabicMessages = map[string]string{
	"emailRequired":           "البريد الإلكتروني مطلوب",
	"invalidEmail":            "البريد الإلكتروني غير صالح",
	"passwordRequired":        "كلمة المرور مطلوبة",
	"passwordTooShort":        "يجب أن تتكون كلمة المرور من 6 أحرف على الأقل",
	"confirmPasswordRequired": "تأكيد كلمة المرور مطلوب",
	"passwordsDoNotMatch":     "كلمتا المرور غير متطابقتين",
	"usernameRequired":        "اسم المستخدم مطلوب",
	"usernameTooShort":        "يجب أن يتكون اسم المستخدم من 3 أحرف على الأقل",
	"phoneRequired":           "رقم الهاتف مطلوب",
	"sportRequired":           "يرجى اختيار رياضة",
	"otpRequired":             "رمز التحقق مطلوب",
	"loginError":              "البريد الإلكتروني أو كلمة المرور غير صحيحة",
	"loginSuccess":            "تم تسجيل الدخول، جارٍ التحويل...",
	"signupError":             "فشل إنشاء الحساب، حاول مرة أخرى",
	"signupSuccess":           "تم إنشاء الحساب، أُرسل إليك رمز التحقق",
	"emailAlreadyExists":      "هذا البريد الإلكتروني مسجل بالفعل",
	"otpInvalid":              "الرمز غير صالح أو منتهي الصلاحية",
	"otpSuccess":              "نجح التحقق، جارٍ التحويل...",
	"resendOtpError":          "فشل إرسال الرمز، حاول مرة أخرى",
	"resendOtpSuccess":        "تم إرسال رمز جديد",
	"resendOtpCooldown":       "إعادة إرسال الرمز بعد {seconds} ثانية",
	"unexpectedError":         "حدث خطأ غير متوقع",
	"errorLoadingProfile":     "تعذر تحميل الملف الشخصي",
	"profileUpdatedSuccess":   "تم تحديث الملف الشخصي",
	"profileUpdatedError":     "فشل تحديث الملف الشخصي",
}
