package tracker

// SetCodeGenerator replaces the verification code source.
func SetCodeGenerator(s *Service, gen func() (string, error)) {
	s.newCode = gen
}
